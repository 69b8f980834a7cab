package store

import (
	"context"
	"sort"
	"sync"

	"lexaudit/internal/compliance/models"
	id "lexaudit/pkg/domain"
	"lexaudit/pkg/platform/sentinel"
)

// Memory is an in-process compliance store used by unit tests and local
// development. All methods copy values in and out.
type Memory struct {
	mu           sync.RWMutex
	evaluations  map[id.EvaluationID]models.Evaluation
	history      map[id.HistoryID]models.HistoryEntry
	observations map[id.ObservationID]models.Observation
	parameters   map[id.ParameterID]models.MonitoringParameter
	attachments  map[id.AttachmentID]models.Attachment
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		evaluations:  make(map[id.EvaluationID]models.Evaluation),
		history:      make(map[id.HistoryID]models.HistoryEntry),
		observations: make(map[id.ObservationID]models.Observation),
		parameters:   make(map[id.ParameterID]models.MonitoringParameter),
		attachments:  make(map[id.AttachmentID]models.Attachment),
	}
}

func (m *Memory) GetEvaluationByRequirement(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) (*models.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, eval := range m.evaluations {
		if eval.CompanyID == companyID && eval.RequirementID == requirementID {
			out := eval
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) GetEvaluation(_ context.Context, companyID id.CompanyID, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eval, ok := m.evaluations[evaluationID]
	if !ok || eval.CompanyID != companyID {
		return nil, sentinel.ErrNotFound
	}
	out := eval
	return &out, nil
}

func (m *Memory) CreateEvaluation(_ context.Context, eval *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.evaluations {
		if existing.CompanyID == eval.CompanyID && existing.RequirementID == eval.RequirementID {
			return sentinel.ErrConflict
		}
	}
	m.evaluations[eval.ID] = *eval
	return nil
}

func (m *Memory) OverwriteEvaluation(_ context.Context, eval *models.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.evaluations[eval.ID]; !ok {
		return sentinel.ErrNotFound
	}
	m.evaluations[eval.ID] = *eval
	return nil
}

func (m *Memory) ListEvaluationsByText(_ context.Context, companyID id.CompanyID, textID id.TextID) ([]models.Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Evaluation{}
	for _, eval := range m.evaluations {
		if eval.CompanyID == companyID && eval.TextID == textID {
			out = append(out, eval)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EvaluatedAt.Before(out[j].EvaluatedAt) })
	return out, nil
}

func (m *Memory) MarkSavedToHistory(_ context.Context, companyID id.CompanyID, textID id.TextID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marked := 0
	for evalID, eval := range m.evaluations {
		if eval.CompanyID == companyID && eval.TextID == textID && !eval.SavedToHistory {
			eval.SavedToHistory = true
			m.evaluations[evalID] = eval
			marked++
		}
	}
	return marked, nil
}

func (m *Memory) AppendHistory(_ context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[entry.ID] = *entry
	return nil
}

func (m *Memory) ListHistoryByEvaluation(_ context.Context, evaluationID id.EvaluationID) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.HistoryEntry{}
	for _, entry := range m.history {
		if entry.EvaluationID == evaluationID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}

func (m *Memory) AddObservation(_ context.Context, obs *models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[obs.ID] = *obs
	return nil
}

func (m *Memory) GetObservation(_ context.Context, observationID id.ObservationID) (*models.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs, ok := m.observations[observationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := obs
	return &out, nil
}

func (m *Memory) DeleteObservation(_ context.Context, observationID id.ObservationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.observations[observationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.observations, observationID)
	return nil
}

func (m *Memory) ListObservationsByEvaluation(_ context.Context, evaluationID id.EvaluationID) ([]models.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Observation{}
	for _, obs := range m.observations {
		if obs.EvaluationID == evaluationID {
			out = append(out, obs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AddParameter(_ context.Context, param *models.MonitoringParameter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parameters[param.ID] = *param
	return nil
}

func (m *Memory) GetParameter(_ context.Context, parameterID id.ParameterID) (*models.MonitoringParameter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	param, ok := m.parameters[parameterID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := param
	return &out, nil
}

func (m *Memory) DeleteParameter(_ context.Context, parameterID id.ParameterID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parameters[parameterID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.parameters, parameterID)
	return nil
}

func (m *Memory) ListParametersByEvaluation(_ context.Context, evaluationID id.EvaluationID) ([]models.MonitoringParameter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.MonitoringParameter{}
	for _, param := range m.parameters {
		if param.EvaluationID == evaluationID {
			out = append(out, param)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AddAttachment(_ context.Context, att *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[att.ID] = *att
	return nil
}

func (m *Memory) GetAttachment(_ context.Context, attachmentID id.AttachmentID) (*models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	att, ok := m.attachments[attachmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := att
	return &out, nil
}

func (m *Memory) DeleteAttachment(_ context.Context, attachmentID id.AttachmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attachments[attachmentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.attachments, attachmentID)
	return nil
}

func (m *Memory) ListAttachmentsByEvaluation(_ context.Context, evaluationID id.EvaluationID) ([]models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Attachment{}
	for _, att := range m.attachments {
		if att.EvaluationID == evaluationID {
			out = append(out, att)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteForText removes a text's evaluations plus their history and
// satellites. Used by the text cascade.
func (m *Memory) DeleteForText(_ context.Context, companyID id.CompanyID, textID id.TextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for evalID, eval := range m.evaluations {
		if eval.CompanyID != companyID || eval.TextID != textID {
			continue
		}
		m.deleteEvaluationLocked(evalID)
	}
	return nil
}

// DeleteForRequirement removes a single requirement's evaluation with its
// history and satellites.
func (m *Memory) DeleteForRequirement(_ context.Context, companyID id.CompanyID, requirementID id.RequirementID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for evalID, eval := range m.evaluations {
		if eval.CompanyID != companyID || eval.RequirementID != requirementID {
			continue
		}
		m.deleteEvaluationLocked(evalID)
	}
	return nil
}

func (m *Memory) deleteEvaluationLocked(evalID id.EvaluationID) {
	for obsID, obs := range m.observations {
		if obs.EvaluationID == evalID {
			delete(m.observations, obsID)
		}
	}
	for paramID, param := range m.parameters {
		if param.EvaluationID == evalID {
			delete(m.parameters, paramID)
		}
	}
	for attID, att := range m.attachments {
		if att.EvaluationID == evalID {
			delete(m.attachments, attID)
		}
	}
	for histID, entry := range m.history {
		if entry.EvaluationID == evalID {
			delete(m.history, histID)
		}
	}
	delete(m.evaluations, evalID)
}
