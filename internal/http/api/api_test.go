package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	dbutil "github.com/tusharkarle/gym-management/internal/db"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var apiTestNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details"`
}

func setupAPITestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	t.Cleanup(func() { _ = dbutil.Close(conn) })
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	router := gin.New()
	RegisterRoutes(router, conn, func() time.Time { return apiTestNow })
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, errMarshal := json.Marshal(v)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(path, BasePath) {
		if errDecode := json.Unmarshal(w.Body.Bytes(), &env); errDecode != nil {
			t.Fatalf("decode %s %s response: %v body=%s", method, path, errDecode, w.Body.String())
		}
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	if errDecode := json.Unmarshal(env.Data, out); errDecode != nil {
		t.Fatalf("decode data: %v data=%s", errDecode, env.Data)
	}
}

func memberBody(firstName, aadhar, email string) map[string]any {
	return map[string]any{
		"firstName":   firstName,
		"lastName":    "Patil",
		"gender":      "female",
		"address":     "4 FC Road, Pune",
		"whatsappNo":  "98765 43210",
		"email":       email,
		"dateOfBirth": "1992-03-20",
		"profession":  "Accountant",
		"aadharCard":  aadhar,
	}
}

func createMember(t *testing.T, router http.Handler, firstName, aadhar, email string) uint64 {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, BasePath+"/members", memberBody(firstName, aadhar, email))
	if w.Code != http.StatusCreated {
		t.Fatalf("create member status %d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		ID uint64 `json:"id"`
	}
	decodeData(t, env, &out)
	return out.ID
}

func createPackage(t *testing.T, router http.Handler, name string, months int, price float64) uint64 {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, BasePath+"/packages", map[string]any{
		"name": name, "durationMonths": months, "price": price,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create package status %d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		ID uint64 `json:"id"`
	}
	decodeData(t, env, &out)
	return out.ID
}

func TestMemberLifecycle(t *testing.T) {
	router := setupAPITestRouter(t)

	id := createMember(t, router, "Asha", "1234 5678 9012", "Asha@Example.com")

	w, env := doJSON(t, router, http.MethodGet, BasePath+"/members?search=sha", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("list status %d body=%s", w.Code, w.Body.String())
	}
	var members []struct {
		ID         uint64 `json:"id"`
		Email      string `json:"email"`
		AadharCard string `json:"aadharCard"`
		WhatsappNo string `json:"whatsappNo"`
	}
	decodeData(t, env, &members)
	if len(members) != 1 || members[0].ID != id {
		t.Fatalf("unexpected members %+v", members)
	}
	if members[0].Email != "asha@example.com" || members[0].AadharCard != "123456789012" || members[0].WhatsappNo != "9876543210" {
		t.Fatalf("expected normalized contact fields, got %+v", members[0])
	}

	_, env = doJSON(t, router, http.MethodGet, BasePath+"/members?search=SHA", nil)
	decodeData(t, env, &members)
	if len(members) != 0 {
		t.Fatalf("expected case-sensitive search, got %d rows", len(members))
	}

	w, env = doJSON(t, router, http.MethodPatch, fmt.Sprintf("%s/members/%d", BasePath, id), map[string]any{"profession": "Principal"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status %d body=%s", w.Code, w.Body.String())
	}
	var updated struct {
		Profession string `json:"profession"`
	}
	decodeData(t, env, &updated)
	if updated.Profession != "Principal" {
		t.Fatalf("expected profession Principal, got %q", updated.Profession)
	}

	w, env = doJSON(t, router, http.MethodDelete, fmt.Sprintf("%s/members/%d", BasePath, id), nil)
	if w.Code != http.StatusOK || env.Message != "Member deleted successfully" {
		t.Fatalf("delete status %d body=%s", w.Code, w.Body.String())
	}

	w, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("%s/members/%d", BasePath, id), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if env.Success || env.Error != fmt.Sprintf("Member with ID %d not found", id) {
		t.Fatalf("unexpected not found envelope %+v", env)
	}
}

func TestErrorEnvelopes(t *testing.T) {
	router := setupAPITestRouter(t)
	createMember(t, router, "Ravi", "111122223333", "ravi@example.com")

	w, env := doJSON(t, router, http.MethodPost, BasePath+"/members", map[string]any{"firstName": "X"})
	if w.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
	if env.Error != "validation failed" || len(env.Details["aadharCard"]) == 0 || len(env.Details["email"]) == 0 {
		t.Fatalf("unexpected validation envelope %+v", env)
	}

	w, env = doJSON(t, router, http.MethodPost, BasePath+"/members", memberBody("Other", "111122223333", "ravi@example.com"))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if env.Error != "a member with this Aadhar card number already exists" {
		t.Fatalf("expected identity conflict first, got %q", env.Error)
	}

	w, env = doJSON(t, router, http.MethodPost, BasePath+"/members", memberBody("Other", "999988887777", "ravi@example.com"))
	if w.Code != http.StatusConflict || env.Error != "a member with this email already exists" {
		t.Fatalf("expected email conflict, got %d %+v", w.Code, env)
	}

	w, env = doJSON(t, router, http.MethodPost, BasePath+"/members", "{not json")
	if w.Code != http.StatusBadRequest || env.Error != "invalid json" {
		t.Fatalf("expected invalid json, got %d %+v", w.Code, env)
	}

	w, env = doJSON(t, router, http.MethodGet, BasePath+"/members/abc", nil)
	if w.Code != http.StatusBadRequest || env.Error != "invalid id" {
		t.Fatalf("expected invalid id, got %d %+v", w.Code, env)
	}

	w, _ = doJSON(t, router, http.MethodGet, BasePath+"/members?gender=robot", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown gender, got %d", w.Code)
	}
}

func TestRenewCancelAndPayments(t *testing.T) {
	router := setupAPITestRouter(t)
	memberID := createMember(t, router, "Meera", "222233334444", "meera@example.com")
	packageID := createPackage(t, router, "Quarterly", 3, 5000)

	renewPath := fmt.Sprintf("%s/packages/renew/%d/%d", BasePath, memberID, packageID)
	w, env := doJSON(t, router, http.MethodPost, renewPath, map[string]any{
		"payment": map[string]any{"paymentMethod": "upi", "transactionId": "UPI-1"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("renew status %d body=%s", w.Code, w.Body.String())
	}
	var subscription struct {
		ID        uint64  `json:"id"`
		Amount    float64 `json:"amount"`
		Status    string  `json:"status"`
		StartDate string  `json:"startDate"`
		EndDate   string  `json:"endDate"`
	}
	decodeData(t, env, &subscription)
	if subscription.Amount != 5000 || subscription.Status != "active" {
		t.Fatalf("unexpected subscription %+v", subscription)
	}
	if !strings.HasPrefix(subscription.StartDate, "2024-03-15") || !strings.HasPrefix(subscription.EndDate, "2024-06-15") {
		t.Fatalf("unexpected dates %s..%s", subscription.StartDate, subscription.EndDate)
	}

	w, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("%s/payments?memberId=%d", BasePath, memberID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list payments status %d", w.Code)
	}
	var payments []struct {
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	decodeData(t, env, &payments)
	if len(payments) != 1 || payments[0].Amount != 5000 || payments[0].PaymentMethod != "upi" {
		t.Fatalf("unexpected payments %+v", payments)
	}

	// Renewal without a body records no payment.
	w, _ = doJSON(t, router, http.MethodPost, renewPath, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("renew without body status %d body=%s", w.Code, w.Body.String())
	}

	w, env = doJSON(t, router, http.MethodPost, fmt.Sprintf("%s/packages/renew/%d/%d", BasePath, memberID, 999), nil)
	if w.Code != http.StatusNotFound || env.Error != "Package with ID 999 not found" {
		t.Fatalf("expected package not found, got %d %+v", w.Code, env)
	}

	w, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("%s/packages/member/%d", BasePath, memberID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("member packages status %d", w.Code)
	}
	var subscriptions []json.RawMessage
	decodeData(t, env, &subscriptions)
	if len(subscriptions) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subscriptions))
	}

	cancelPath := fmt.Sprintf("%s/member-packages/%d/cancel", BasePath, subscription.ID)
	w, _ = doJSON(t, router, http.MethodPost, cancelPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status %d body=%s", w.Code, w.Body.String())
	}
	w, env = doJSON(t, router, http.MethodPost, cancelPath, nil)
	if w.Code != http.StatusConflict || env.Success {
		t.Fatalf("expected 409 on second cancel, got %d %+v", w.Code, env)
	}

	w, env = doJSON(t, router, http.MethodPost, BasePath+"/payments", map[string]any{
		"memberPackageId": subscription.ID, "amount": 250, "paymentMethod": "cash",
	})
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("record payment status %d body=%s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, router, http.MethodPatch, fmt.Sprintf("%s/packages/%d", BasePath, packageID), map[string]any{"isActive": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodPost, renewPath, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected inactive package renew to be 404, got %d", w.Code)
	}
	w, env = doJSON(t, router, http.MethodGet, BasePath+"/packages", nil)
	if w.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("expected no active packages, got %d %s", w.Code, env.Data)
	}
}

func TestAttendanceEndpoints(t *testing.T) {
	router := setupAPITestRouter(t)
	memberID := createMember(t, router, "Kiran", "333344445555", "kiran@example.com")

	w, env := doJSON(t, router, http.MethodPost, BasePath+"/attendance/checkin", map[string]any{"memberId": 4242})
	if w.Code != http.StatusNotFound || env.Error != "Member with ID 4242 not found" {
		t.Fatalf("expected member not found, got %d %+v", w.Code, env)
	}

	w, _ = doJSON(t, router, http.MethodPost, BasePath+"/attendance/checkin", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without memberId, got %d", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, BasePath+"/attendance/checkin", map[string]any{"memberId": memberID, "notes": "morning"})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkin status %d body=%s", w.Code, w.Body.String())
	}

	w, env = doJSON(t, router, http.MethodGet, BasePath+"/attendance/today", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("today status %d", w.Code)
	}
	var today []json.RawMessage
	decodeData(t, env, &today)
	if len(today) != 1 {
		t.Fatalf("expected 1 check-in today, got %d", len(today))
	}

	w, env = doJSON(t, router, http.MethodGet, BasePath+"/attendance?start=2024-03-15T00:00:00Z&end=2024-03-16T00:00:00Z", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("range status %d body=%s", w.Code, w.Body.String())
	}
	var ranged []json.RawMessage
	decodeData(t, env, &ranged)
	if len(ranged) != 1 {
		t.Fatalf("expected 1 check-in in range, got %d", len(ranged))
	}

	w, env = doJSON(t, router, http.MethodGet, BasePath+"/attendance?start=yesterday", nil)
	if w.Code != http.StatusBadRequest || len(env.Details["start"]) == 0 || len(env.Details["end"]) == 0 {
		t.Fatalf("expected range validation errors, got %d %+v", w.Code, env)
	}
}

func TestDashboardAndSettings(t *testing.T) {
	router := setupAPITestRouter(t)
	createMember(t, router, "Nisha", "444455556666", "nisha@example.com")

	w, env := doJSON(t, router, http.MethodGet, BasePath+"/dashboard/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status %d", w.Code)
	}
	var stats struct {
		TotalMembers int64 `json:"totalMembers"`
	}
	decodeData(t, env, &stats)
	if stats.TotalMembers != 1 {
		t.Fatalf("expected 1 member, got %d", stats.TotalMembers)
	}

	for _, path := range []string{
		"/dashboard/expiring?days=30",
		"/dashboard/birthdays",
		"/dashboard/attendance-trend?days=7",
		"/reports/packages",
		"/reports/revenue?months=3",
	} {
		w, env = doJSON(t, router, http.MethodGet, BasePath+path, nil)
		if w.Code != http.StatusOK || !env.Success {
			t.Fatalf("%s status %d body=%s", path, w.Code, w.Body.String())
		}
	}
	w, _ = doJSON(t, router, http.MethodGet, BasePath+"/dashboard/expiring?days=soon", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad days, got %d", w.Code)
	}

	w, env = doJSON(t, router, http.MethodPut, BasePath+"/settings/GYM_NAME", map[string]any{"value": "Iron Temple"})
	if w.Code != http.StatusOK {
		t.Fatalf("put setting status %d body=%s", w.Code, w.Body.String())
	}
	w, env = doJSON(t, router, http.MethodGet, BasePath+"/settings/GYM_NAME", nil)
	var setting struct {
		Value json.RawMessage `json:"value"`
	}
	decodeData(t, env, &setting)
	if w.Code != http.StatusOK || string(setting.Value) != `"Iron Temple"` {
		t.Fatalf("unexpected setting %d %s", w.Code, setting.Value)
	}

	w, _ = doJSON(t, router, http.MethodGet, BasePath+"/settings/NOPE", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown setting, got %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodPut, BasePath+"/settings/GYM_NAME", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing value, got %d", w.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	router := setupAPITestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status %d body=%s", w.Code, w.Body.String())
	}
	var health envelope
	if errDecode := json.Unmarshal(w.Body.Bytes(), &health); errDecode != nil {
		t.Fatalf("decode healthz: %v", errDecode)
	}
	var status struct {
		Database      string `json:"database"`
		Dialect       string `json:"dialect"`
		SchemaVersion int    `json:"schemaVersion"`
	}
	if errDecode := json.Unmarshal(health.Data, &status); errDecode != nil {
		t.Fatalf("decode healthz data: %v", errDecode)
	}
	if !health.Success || status.Database != "up" || status.Dialect != "sqlite" {
		t.Fatalf("unexpected healthz body %s", w.Body.String())
	}
	if status.SchemaVersion != dbutil.LatestVersion() {
		t.Fatalf("schemaVersion = %d, want %d", status.SchemaVersion, dbutil.LatestVersion())
	}

	createMember(t, router, "Om", "555566667777", "om@example.com")
	w, _ = doJSON(t, router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "gym_members_created_total") {
		t.Fatalf("metrics status %d", w.Code)
	}
}

func setupMockRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, mock, errMock := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if errMock != nil {
		t.Fatalf("create sqlmock: %v", errMock)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, errOpen := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if errOpen != nil {
		t.Fatalf("open gorm: %v", errOpen)
	}

	router := gin.New()
	RegisterRoutes(router, conn, func() time.Time { return apiTestNow })
	return router, mock
}

func TestHealthzReportsDatabaseDown(t *testing.T) {
	router, mock := setupMockRouter(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w, _ := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var health envelope
	if errDecode := json.Unmarshal(w.Body.Bytes(), &health); errDecode != nil {
		t.Fatalf("decode healthz: %v", errDecode)
	}
	if health.Success || health.Error != "database unavailable" || !strings.Contains(string(health.Data), `"database":"down"`) {
		t.Fatalf("unexpected healthz body %s", w.Body.String())
	}
	if errExpect := mock.ExpectationsWereMet(); errExpect != nil {
		t.Fatalf("unmet expectations: %v", errExpect)
	}
}

func TestStorageFailureMapsToInternalError(t *testing.T) {
	router, mock := setupMockRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "packages"`).WillReturnError(errors.New("disk I/O error"))

	w, env := doJSON(t, router, http.MethodGet, BasePath+"/packages", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", w.Code, w.Body.String())
	}
	if env.Success || env.Error != "internal server error" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if errExpect := mock.ExpectationsWereMet(); errExpect != nil {
		t.Fatalf("unmet expectations: %v", errExpect)
	}
}
