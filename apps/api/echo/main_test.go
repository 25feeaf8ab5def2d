package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/coaching/apps/api/echo"
	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
	emailsvc "github.com/trezcool/coaching/services/email"
	logsvc "github.com/trezcool/coaching/services/logger"
	inmemdb "github.com/trezcool/coaching/storage/database/inmem"
	"github.com/trezcool/coaching/tests"
)

var (
	conf = core.NewTestConfig()

	teacher = core.Identity{UserID: "teacher-1", Role: core.RoleTeacher}
	admin   = core.Identity{UserID: "admin-1", Role: core.RoleAdmin}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testEnv struct {
	app       *Server
	stdRepo   student.Repository
	feeRepo   fee.Repository
	tokenRepo notification.Repository
	provider  *testutil.FakeProvider
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.Open()
	logger := logsvc.NewDiscardLogger()
	validate, translator := testutil.NewValidator()

	env := testEnv{
		stdRepo:   inmemdb.NewStudentRepository(db),
		feeRepo:   inmemdb.NewPaymentRepository(db),
		tokenRepo: inmemdb.NewTokenRepository(db),
		provider:  &testutil.FakeProvider{},
	}
	stdSvc := student.NewService(env.stdRepo)
	feeSvc := fee.NewService(env.feeRepo, stdSvc, emailsvc.NewConsoleServiceMock(conf, logger), logger)
	dispatcher := notification.NewDispatcher(env.tokenRepo, env.provider, conf.Push.BatchSize, logger)
	notifSvc := notification.NewService(env.tokenRepo, dispatcher, stdSvc, logger)
	reminder := notification.Message{Title: conf.Fees.ReminderTitle, Body: conf.Fees.ReminderBody, ClickAction: conf.Fees.ReminderURL}

	env.app = NewServer(conf, &Deps{
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		StudentSvc:      stdSvc,
		FeeSvc:          feeSvc,
		NotificationSvc: notifSvc,
		Reminders:       fee.NewReminderScheduler(feeSvc, stdSvc, dispatcher, reminder, logger),
	})
	emailsvc.ResetSentMessages()
	return env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (env testEnv) do(t *testing.T, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env testEnv) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := env.do(t, method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func getToken(t *testing.T, id core.Identity) string {
	t.Helper()
	token, err := GenerateToken(conf, NewClaims(conf, id))
	require.NoError(t, err)
	return token
}

func studentToken(t *testing.T, std student.Student) string {
	return getToken(t, core.Identity{UserID: std.UserID, Role: core.RoleStudent})
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (body %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
