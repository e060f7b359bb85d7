package handlers

import (
	"context"
	"time"

	studydto "github.com/abengolea/heartlink-sub000/internal/application/study/dto"
	studyusecases "github.com/abengolea/heartlink-sub000/internal/application/study/usecases"
	subdto "github.com/abengolea/heartlink-sub000/internal/application/subscription/dto"
	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
)

type mockReconcileUC struct {
	ExecuteFunc func(ctx context.Context, cmd usecases.ReconcilePaymentCommand) (*usecases.ReconcileResult, error)
	calls       []usecases.ReconcilePaymentCommand
}

func (m *mockReconcileUC) Execute(ctx context.Context, cmd usecases.ReconcilePaymentCommand) (*usecases.ReconcileResult, error) {
	m.calls = append(m.calls, cmd)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return &usecases.ReconcileResult{Outcome: "applied"}, nil
}

type mockVerifier struct {
	enabled bool
	err     error
	dataID  string
}

func (m *mockVerifier) Enabled() bool { return m.enabled }

func (m *mockVerifier) Verify(header, requestID, dataID string) error {
	m.dataID = dataID
	return m.err
}

type mockSweepUC struct {
	report *usecases.SweepReport
	err    error
	at     time.Time
}

func (m *mockSweepUC) Execute(ctx context.Context, now time.Time) (*usecases.SweepReport, error) {
	m.at = now
	return m.report, m.err
}

type mockStatusUC struct {
	result    *subdto.SubscriptionStatusDTO
	err       error
	requested string
}

func (m *mockStatusUC) Execute(ctx context.Context, userID string) (*subdto.SubscriptionStatusDTO, error) {
	m.requested = userID
	return m.result, m.err
}

type mockCreateSubscriptionUC struct {
	result *usecases.CreateSubscriptionResult
	err    error
	cmd    usecases.CreateSubscriptionCommand
}

func (m *mockCreateSubscriptionUC) Execute(ctx context.Context, cmd usecases.CreateSubscriptionCommand) (*usecases.CreateSubscriptionResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockCancelSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	cmd    usecases.CancelSubscriptionCommand
}

func (m *mockCancelSubscriptionUC) Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockReactivateSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	cmd    usecases.ReactivateSubscriptionCommand
}

func (m *mockReactivateSubscriptionUC) Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockCreateStudyUC struct {
	result *studydto.StudyDTO
	err    error
	cmd    studyusecases.CreateStudyCommand
	called bool
}

func (m *mockCreateStudyUC) Execute(ctx context.Context, cmd studyusecases.CreateStudyCommand) (*studydto.StudyDTO, error) {
	m.called = true
	m.cmd = cmd
	return m.result, m.err
}

type mockListStudiesUC struct {
	result []*studydto.StudyDTO
	err    error
}

func (m *mockListStudiesUC) Execute(ctx context.Context, userID string) ([]*studydto.StudyDTO, error) {
	return m.result, m.err
}
