package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	data := struct {
		StudentName   string
		ReceiptNo     string
		Amount        string
		Date          string
		TransactionID string
		Remarks       string
		NextDueDate   string
	}{
		StudentName: "Amani <3",
		ReceiptNo:   "r-1",
		Amount:      "1500.50",
		Date:        "2024-02-01",
		NextDueDate: "2024-03-02",
	}

	t.Run("templated", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "payment_receipt", TemplateData: data}
		require.NoError(t, msg.Render("Coaching"))
		assert.True(t, msg.HasContent())

		assert.Contains(t, msg.TextContent, "Hi Amani <3,")
		assert.Contains(t, msg.TextContent, "Amount:         1500.50")
		assert.NotContains(t, msg.TextContent, "Transaction ID")
		assert.Contains(t, msg.TextContent, "The Coaching team")

		assert.Contains(t, msg.HTMLContent, "Hi Amani &lt;3,")
		assert.Contains(t, msg.HTMLContent, "<b>2024-03-02</b>")
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render("Coaching"))
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "lol"}
		require.NoError(t, msg.Render("Coaching"))
		assert.False(t, msg.HasContent())
	})
}
