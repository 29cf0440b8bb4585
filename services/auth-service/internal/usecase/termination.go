package usecase

import (
	"context"

	"github.com/djdict/djdict-api/services/auth-service/internal/metrics"
	"github.com/djdict/djdict-api/services/auth-service/internal/model"
)

func (u *accountUsecase) TerminateAccount(
	ctx context.Context,
	params TerminateParams,
) (*model.TerminationRequest, error) {
	request, err := u.terminateAccount(ctx, params)
	u.metrics.Terminations.WithLabelValues(string(params.State), metrics.Result(err)).Inc()

	return request, err
}

func (u *accountUsecase) terminateAccount(
	ctx context.Context,
	params TerminateParams,
) (*model.TerminationRequest, error) {
	if !params.State.Valid() {
		return nil, ErrInvalidTerminationState
	}

	account, err := u.getAccount(ctx, params.AccountID)
	if err != nil {
		return nil, err
	}

	if err := checkPassword(account, params.Password); err != nil {
		return nil, err
	}

	// Nothing is queued unless the owner has been told about it.
	subject, body := accountFrozenMessage(account.Username, u.cfg.Account.TerminationGracePeriod)
	if err := u.notify(account.Email, subject, body); err != nil {
		return nil, err
	}

	request, err := u.terminations.EnqueueTermination(ctx, &model.TerminationRequest{
		AccountID: account.ID,
		State:     params.State,
		CreatedAt: u.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	// Unlike logout this signs the account out on every device, including the caller's.
	revoked, err := u.sessions.RevokeAccountSessions(ctx, params.AccountID)
	if err != nil {
		return nil, err
	}
	u.metrics.Revocations.WithLabelValues(revokeReasonTermination).Add(float64(revoked))

	u.logger.Info().
		Str("account_id", params.AccountID).
		Str("state", string(params.State)).
		Int64("revoked_sessions", revoked).
		Msg("account termination requested")

	return request, nil
}

func (u *accountUsecase) Status(ctx context.Context, accountID string) (*AccountStatus, error) {
	account, err := u.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{Account: account, State: StateActive}
	if !account.Active {
		status.State = StatePendingActivation
		return status, nil
	}

	request, found, err := u.terminations.GetTermination(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		return status, nil
	}

	status.Termination = request
	status.State = StateFrozen
	if request.State == model.TerminationDelete {
		status.State = StateScheduledForDeletion
		deletesAt := request.CreatedAt.Add(u.cfg.Account.TerminationGracePeriod)
		status.DeletesAt = &deletesAt
	}

	return status, nil
}
