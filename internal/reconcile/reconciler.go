// Package reconcile moves donations from the chain into the relational
// mirror. A submitted transaction is stored as pending first, so a transfer
// that succeeded on chain is never lost when the mirror write fails; the
// periodic sweep retries it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"blockfund/internal/chain"
	"blockfund/internal/domain"
	"blockfund/internal/metrics"
	"blockfund/internal/realtime"
)

const (
	defaultWorkers     = 4
	defaultBatchSize   = 50
	defaultMaxAttempts = 120
)

// ErrChainUnavailable is returned when no chain endpoint is configured.
var ErrChainUnavailable = errors.New("reconcile: chain unavailable")

// Verifier checks a donation transaction on chain. *chain.Client satisfies it.
type Verifier interface {
	VerifyDonation(ctx context.Context, txHash string, want chain.DonationExpectation) error
}

// Options tunes the sweep.
type Options struct {
	Workers     int
	BatchSize   int
	MaxAttempts int
}

// Reconciler confirms pending donations and applies them to the mirror.
type Reconciler struct {
	pending   domain.PendingDonationRepository
	campaigns domain.CampaignRepository
	verifier  Verifier
	broker    realtime.Broker
	logger    zerolog.Logger
	opts      Options
}

// New builds a Reconciler. verifier and broker may be nil.
func New(pending domain.PendingDonationRepository, campaigns domain.CampaignRepository, verifier Verifier, broker realtime.Broker, logger zerolog.Logger, opts Options) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Reconciler{
		pending:   pending,
		campaigns: campaigns,
		verifier:  verifier,
		broker:    broker,
		logger:    logger.With().Str("component", "reconcile").Logger(),
		opts:      opts,
	}
}

// Submit checks a donor's transaction on chain, records it and applies it
// right away when it is mined. A transaction that contradicts the submission
// is rejected without being stored, so it cannot claim the hash. A stored
// failed submission is replaced by the next one for the same hash.
// chain.ErrPending means the transfer is stored and will be picked up by the
// sweep.
func (r *Reconciler) Submit(ctx context.Context, p *domain.PendingDonation) (*domain.AppliedDonation, error) {
	if r.verifier == nil {
		return nil, ErrChainUnavailable
	}
	verr := r.verify(ctx, *p)
	if errors.Is(verr, chain.ErrMismatch) {
		metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		r.logger.Warn().Err(verr).Str("tx", p.TxHash).Msg("donation rejected")
		return nil, verr
	}
	if err := r.pending.Create(ctx, p); err != nil {
		return nil, err
	}
	metrics.DonationsSubmittedTotal.Inc()
	r.logger.Info().
		Str("tx", p.TxHash).
		Int64("campaign_id", p.CampaignID).
		Str("amount", p.Amount.String()).
		Msg("donation submitted")
	return r.settle(ctx, *p, verr)
}

// Confirm verifies one pending transfer. On success the donation row and the
// campaign total are written in one statement.
func (r *Reconciler) Confirm(ctx context.Context, p domain.PendingDonation) (*domain.AppliedDonation, error) {
	if r.verifier == nil {
		return nil, ErrChainUnavailable
	}
	return r.settle(ctx, p, r.verify(ctx, p))
}

func (r *Reconciler) verify(ctx context.Context, p domain.PendingDonation) error {
	campaign, err := r.campaigns.GetByID(ctx, p.CampaignID)
	if err != nil {
		return fmt.Errorf("reconcile: load campaign: %w", err)
	}
	if campaign.ChainIndex == nil {
		return fmt.Errorf("%w: campaign %d is not on chain", chain.ErrMismatch, p.CampaignID)
	}
	return r.verifier.VerifyDonation(ctx, p.TxHash, chain.DonationExpectation{
		ChainIndex: *campaign.ChainIndex,
		Wei:        chain.ToWei(p.Amount),
		From:       p.DonorAddress,
	})
}

// settle acts on the verification outcome of a stored pending transfer.
func (r *Reconciler) settle(ctx context.Context, p domain.PendingDonation, err error) (*domain.AppliedDonation, error) {
	switch {
	case errors.Is(err, chain.ErrPending):
		if p.Attempts+1 >= r.opts.MaxAttempts {
			return nil, r.fail(ctx, p, fmt.Errorf("%w: not mined after %d attempts", chain.ErrMismatch, p.Attempts+1))
		}
		if terr := r.pending.TouchAttempt(ctx, p.TxHash); terr != nil {
			r.logger.Warn().Err(terr).Str("tx", p.TxHash).Msg("record attempt")
		}
		metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomePending).Inc()
		return nil, err
	case errors.Is(err, chain.ErrMismatch):
		return nil, r.fail(ctx, p, err)
	case err != nil:
		metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	applied, err := r.pending.Apply(ctx, p.TxHash)
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateOperation) {
			metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}
	metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomeConfirmed).Inc()
	r.logger.Info().
		Str("tx", p.TxHash).
		Int64("campaign_id", applied.CampaignID).
		Str("amount_collected", applied.AmountCollected.String()).
		Msg("donation applied")
	r.publish(ctx, realtime.Event{Table: realtime.TableDonations, Type: realtime.ChangeInsert, RowID: applied.DonationID})
	r.publish(ctx, realtime.Event{Table: realtime.TableCampaigns, Type: realtime.ChangeUpdate, RowID: strconv.FormatInt(applied.CampaignID, 10)})
	return applied, nil
}

func (r *Reconciler) fail(ctx context.Context, p domain.PendingDonation, cause error) error {
	metrics.DonationsReconciledTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	r.logger.Warn().Err(cause).Str("tx", p.TxHash).Msg("donation rejected")
	if err := r.pending.MarkFailed(ctx, p.TxHash, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (r *Reconciler) publish(ctx context.Context, event realtime.Event) {
	if r.broker == nil {
		return
	}
	if err := r.broker.Publish(ctx, event); err != nil {
		r.logger.Warn().Err(err).Str("table", event.Table).Msg("publish change")
	}
}

// SweepResult counts the outcomes of one sweep.
type SweepResult struct {
	Confirmed int
	Pending   int
	Failed    int
	Errors    int
}

// Sweep confirms up to BatchSize pending transfers with at most Workers chain
// lookups in flight.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if r.verifier == nil {
		return result, ErrChainUnavailable
	}
	start := time.Now()
	defer func() { metrics.ReconcileSweepDuration.Observe(time.Since(start).Seconds()) }()

	items, err := r.pending.ListPending(ctx, r.opts.BatchSize)
	if err != nil {
		return result, fmt.Errorf("reconcile: list pending: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, item := range items {
		g.Go(func() error {
			_, err := r.Confirm(gctx, item)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil, errors.Is(err, domain.ErrDuplicateOperation):
				result.Confirmed++
			case errors.Is(err, chain.ErrPending):
				result.Pending++
			case errors.Is(err, chain.ErrMismatch):
				result.Failed++
			default:
				result.Errors++
				r.logger.Error().Err(err).Str("tx", item.TxHash).Msg("confirm donation")
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
