package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexaudit/internal/compliance/service"
	"lexaudit/internal/compliance/storage"
	"lexaudit/internal/compliance/store"
	"lexaudit/internal/platform/logger"
	textmodels "lexaudit/internal/text/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
	"lexaudit/pkg/platform/tx"
	"lexaudit/pkg/requestcontext"
	"lexaudit/pkg/testutil"
)

type fakeTexts struct {
	texts        map[id.TextID]textmodels.Text
	requirements map[id.RequirementID]textmodels.Requirement
}

func (f *fakeTexts) TextForCompany(_ context.Context, companyID id.CompanyID, textID id.TextID) (*textmodels.Text, error) {
	text, ok := f.texts[textID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	return &text, nil
}

func (f *fakeTexts) RequirementForCompany(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*textmodels.Requirement, error) {
	req, ok := f.requirements[requirementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	text, ok := f.texts[req.TextID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (f *fakeTexts) RequirementsForText(_ context.Context, companyID id.CompanyID, textID id.TextID) ([]textmodels.Requirement, error) {
	text, ok := f.texts[textID]
	if !ok || text.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	out := []textmodels.Requirement{}
	for _, req := range f.requirements {
		if req.TextID == textID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeTexts) ListTexts(_ context.Context, companyID id.CompanyID, _ textmodels.TextFilter) ([]textmodels.Text, error) {
	out := []textmodels.Text{}
	for _, text := range f.texts {
		if text.CompanyID == companyID {
			out = append(out, text)
		}
	}
	return out, nil
}

type testEnv struct {
	router  chi.Router
	company id.CompanyID
	textID  id.TextID
	reqID   id.RequirementID
	manager requestcontext.ActorContext
	auditor requestcontext.ActorContext
	reader  requestcontext.ActorContext
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	company := id.NewCompanyID()
	textID := id.NewTextID()
	reqID := id.NewRequirementID()

	texts := &fakeTexts{
		texts: map[id.TextID]textmodels.Text{
			textID: {ID: textID, CompanyID: company, Reference: "ISO 45001"},
		},
		requirements: map[id.RequirementID]textmodels.Requirement{
			reqID: {
				ID: reqID, TextID: textID, Number: "6.1", Title: "Hazard identification",
				Status: id.DefaultEvaluationStatus,
			},
		},
	}

	svc := service.New(store.NewMemory(), texts, storage.NewDisk(t.TempDir()), tx.PassthroughRunner{}, nil)
	h := New(svc, logger.New())

	router := chi.NewRouter()
	h.Register(router)

	return &testEnv{
		router:  router,
		company: company,
		textID:  textID,
		reqID:   reqID,
		manager: testutil.Manager(id.NewUserID(), company),
		auditor: testutil.Auditor(id.NewUserID(), company),
		reader:  testutil.ReadOnlyUser(id.NewUserID(), company),
	}
}

func (e *testEnv) do(t *testing.T, actor requestcontext.ActorContext, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, path, body)
	} else {
		req = testutil.NewRequest(t, method, path)
	}
	req = testutil.WithActor(req, actor)
	return testutil.DoRequest(e.router, req)
}

func (e *testEnv) evaluate(t *testing.T, status string) map[string]any {
	t.Helper()
	rr := e.do(t, e.auditor, http.MethodPost, "/compliance/evaluate", map[string]string{
		"requirement_id": e.reqID.String(),
		"status":         status,
	})
	testutil.AssertStatus(t, rr, http.StatusOK)
	return *testutil.UnmarshalResponse[map[string]any](t, rr)
}

func TestEvaluateOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	first := e.evaluate(t, "applicable")
	assert.Equal(t, "applicable", first["status"])

	second := e.evaluate(t, "non-applicable")
	assert.Equal(t, first["id"], second["id"], "evaluation row is reused")

	rr := e.do(t, e.reader, http.MethodGet, "/compliance/history/"+e.reqID.String(), nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](t, rr)
	history := (*resp)["history"].([]any)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, "applicable", entry["previous_status"])
	assert.Equal(t, "non-applicable", entry["new_status"])
}

func TestEvaluateRejectionsOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, e.reader, http.MethodPost, "/compliance/evaluate", map[string]string{
		"requirement_id": e.reqID.String(),
		"status":         "applicable",
	})
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = e.do(t, e.auditor, http.MethodPost, "/compliance/evaluate", map[string]string{
		"requirement_id": e.reqID.String(),
		"status":         "compliant",
	})
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")

	rr = e.do(t, e.auditor, http.MethodPost, "/compliance/evaluate", map[string]string{
		"requirement_id": id.NewRequirementID().String(),
		"status":         "applicable",
	})
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestCurrentStatusOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, e.reader, http.MethodGet, "/compliance/requirements/"+e.reqID.String(), nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "à vérifier", (*resp)["status"])
	assert.Equal(t, false, (*resp)["evaluated"])

	e.evaluate(t, "pour information")

	rr = e.do(t, e.reader, http.MethodGet, "/compliance/requirements/"+e.reqID.String(), nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp = testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "pour information", (*resp)["status"])
	assert.Equal(t, true, (*resp)["evaluated"])
}

func TestTextsOverviewOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	e.evaluate(t, "applicable")

	rr := e.do(t, e.reader, http.MethodGet, "/compliance/texts", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[[]map[string]any](t, rr)
	require.Len(t, *resp, 1)
	overview := (*resp)[0]
	assert.Equal(t, "ISO 45001", overview["reference"])
	assert.Equal(t, float64(1), overview["total_requirements"])
	assert.Equal(t, float64(100), overview["applicable_percentage"])
}

func TestMalformedIDsOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, e.reader, http.MethodGet, "/compliance/requirements/not-a-uuid", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = e.do(t, e.reader, http.MethodGet, "/compliance/texts/not-a-uuid/", nil)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestAttachmentRoundTripOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	eval := e.evaluate(t, "applicable")
	evalID := eval["id"].(string)

	rr := e.do(t, e.auditor, http.MethodPost, "/compliance/evaluations/"+evalID+"/attachments", map[string]string{
		"file_name":      "permit.pdf",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("permit content")),
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	att := testutil.UnmarshalResponse[map[string]any](t, rr)
	attID := (*att)["id"].(string)

	rr = e.do(t, e.reader, http.MethodGet, "/compliance/attachments/"+attID, nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "permit content", rr.Body.String())

	rr = e.do(t, e.manager, http.MethodDelete, "/compliance/attachments/"+attID, nil)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	rr = e.do(t, e.auditor, http.MethodDelete, "/compliance/attachments/"+attID, nil)
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}

func TestSaveToHistoryOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	e.evaluate(t, "applicable")

	rr := e.do(t, e.manager, http.MethodPost, "/compliance/texts/"+e.textID.String()+"/save-to-history", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, float64(1), (*resp)["saved"])
}
