package di

import (
	"testing"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	logsvc "github.com/trezcool/coaching/services/logger"
)

func Test_newCron(t *testing.T) {
	logger := logsvc.NewDiscardLogger()
	reminders := fee.NewReminderScheduler(nil, nil, nil, ReminderMessage(core.NewTestConfig()), logger)

	tests := []struct {
		name        string
		schedule    string
		wantEntries int
		wantErr     bool
	}{
		{name: "daily", schedule: "0 9 * * *", wantEntries: 1},
		{name: "disabled", schedule: "", wantEntries: 0},
		{name: "invalid", schedule: "every day", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Fees.ReminderSchedule = tt.schedule

			c, err := newCron(conf, reminders, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newCron() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(c.Entries()) != tt.wantEntries {
				t.Errorf("newCron() entries = %d, want %d", len(c.Entries()), tt.wantEntries)
			}
		})
	}
}
