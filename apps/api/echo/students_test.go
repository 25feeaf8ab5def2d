package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coaching/core/student"
	"github.com/trezcool/coaching/tests"
)

func Test_studentApi_create(t *testing.T) {
	env := setup(t)
	testutil.SetToday(t, testutil.Day("2024-04-01"))
	teacherToken := getToken(t, teacher)

	existing := testutil.CreateStudent(t, env.stdRepo, "u-taken", "Taken", "", testutil.Day("2024-01-01"))

	env.run(t, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Staff required", method: http.MethodPost, path: "/v1/students", token: studentToken(t, existing),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "Invalid data", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body:     []byte(`{"user_id": " ", "name": "Amani", "email": "lol", "join_date": "2024-31-01"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"user_id":   "this field is required",
				"email":     "email must be a valid email address",
				"join_date": "invalid date, expected YYYY-MM-DD",
			}),
		},
		{
			name: "User already registered", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body:     []byte(`{"user_id": "u-taken", "name": "Amani"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"user_id": student.ErrUserExists.Error()}),
		},
	})

	rec := env.do(t, http.MethodPost, "/v1/students", teacherToken,
		[]byte(`{"user_id": "u-1", "name": " Amani ", "email": "AMANI@test.cd", "batch_id": "b-1"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var std student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
	assert.Equal(t, "Amani", std.Name)
	assert.Equal(t, "amani@test.cd", std.Email)
	assert.Equal(t, student.FeeStatusPending, std.FeeStatus)
	assert.True(t, std.JoinDate.Equal(testutil.Day("2024-04-01")))
}

func Test_studentApi_query(t *testing.T) {
	env := setup(t)
	join := testutil.Day("2024-01-01")
	a := testutil.CreateStudent(t, env.stdRepo, "u-a", "A", "b-1", join)
	b := testutil.CreateStudent(t, env.stdRepo, "u-b", "B", "b-2", join)
	c := testutil.CreateStudent(t, env.stdRepo, "u-c", "C", "b-3", join)
	adminToken := getToken(t, admin)

	env.run(t, []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "Staff required", path: "/v1/students", token: studentToken(t, a), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{name: "Get all", path: "/v1/students", token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, []student.Student{a, b, c})},
		{
			name: "Filter by batch", path: "/v1/students?batch=b-1&batch=b-3", token: adminToken,
			wantCode: http.StatusOK, wantData: marshalObj(t, []student.Student{a, c}),
		},
		{name: "Get one", path: "/v1/students/" + b.ID, token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, b)},
		{
			name: "Get unknown", path: "/v1/students/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: student.ErrNotFound.Error()}),
		},
		{name: "Get mine", path: "/v1/students/me", token: studentToken(t, c), wantCode: http.StatusOK, wantData: marshalObj(t, c)},
		{name: "Get mine (staff)", path: "/v1/students/me", token: adminToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
	})
}
