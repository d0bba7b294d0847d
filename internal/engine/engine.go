package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Engine performs bidirectional sync between the local cache and the
// remote store on behalf of one user. It holds no record state of its
// own; everything goes through the storage.Store.
type Engine struct {
	store  storage.Store
	remote RemoteStore
	conn   ConnectivitySource
	status *Tracker
	clock  Clock
	userID string

	syncing atomic.Bool
}

// New creates an Engine for the given user.
func New(store storage.Store, remote RemoteStore, conn ConnectivitySource, status *Tracker, clock Clock, userID string) *Engine {
	return &Engine{
		store:  store,
		remote: remote,
		conn:   conn,
		status: status,
		clock:  clock,
		userID: userID,
	}
}

// PushResult counts the outcome of one push pass.
type PushResult struct {
	Synced int
	Failed int
}

// PullResult counts the outcome of one pull pass. Ignored counts
// conflict-ignored candidates (local copy newer or equal), which are
// not failures.
type PullResult struct {
	Applied int
	Ignored int
}

// Result is the outcome of one full sync.
type Result struct {
	Push PushResult
	Pull PullResult
}

// Push drains the user's outbox to the remote store, oldest entry
// first. A failing entry is left queued with its error recorded and
// never blocks the entries behind it.
func (e *Engine) Push(ctx context.Context) (PushResult, error) {
	var res PushResult

	entries, err := e.store.OutboxForUser(ctx, e.userID)
	if err != nil {
		return res, fmt.Errorf("failed to read outbox: %w", err)
	}

	for _, entry := range entries {
		if err := e.pushEntry(ctx, entry); err != nil {
			res.Failed++
			pushFailedTotal.Inc()
			slog.Warn("push entry failed",
				"table", entry.Table, "op", entry.Op, "record_id", entry.RecordID, "error", err)
			if serr := e.store.SetOutboxError(ctx, entry.ID, err.Error()); serr != nil {
				slog.Error("failed to record outbox error", "entry_id", entry.ID, "error", serr)
			}
			continue
		}

		if err := e.store.DeleteOutbox(ctx, entry.ID); err != nil {
			return res, fmt.Errorf("failed to remove acknowledged outbox entry: %w", err)
		}
		res.Synced++
		pushedTotal.Inc()
	}

	return res, nil
}

func (e *Engine) pushEntry(ctx context.Context, entry models.OutboxEntry) error {
	switch entry.Op {
	case models.OpInsert, models.OpUpdate:
		if len(entry.Payload) == 0 {
			// Crash between record write and enqueue can in theory
			// leave a payload-less entry; treat as already deleted.
			slog.Warn("dropping outbox entry with no payload",
				"table", entry.Table, "record_id", entry.RecordID)
			return nil
		}
		return e.remote.Upsert(ctx, entry.Table, entry.Payload)
	case models.OpDelete:
		return e.remote.Delete(ctx, entry.Table, entry.RecordID)
	default:
		return fmt.Errorf("unknown outbox operation %q", entry.Op)
	}
}

// Pull fetches remote state for every group the user belongs to and
// merges it into the local cache with per-record last-write-wins: a
// remote record is applied only if its last_modified_at is strictly
// greater than the local copy's, or no local copy exists. Repeating a
// pull with the same remote snapshot is therefore a no-op.
//
// A failure on one table abandons that table for this pass but the
// remaining tables still sync.
func (e *Engine) Pull(ctx context.Context) (PullResult, error) {
	var res PullResult

	raws, err := e.remote.ListMembershipsForUser(ctx, e.userID)
	if err != nil {
		return res, err
	}

	groupIDs, err := groupIDsFromMemberships(raws)
	if err != nil {
		return res, err
	}
	if len(groupIDs) == 0 {
		return res, nil
	}

	var errs []error
	for _, table := range models.SyncedTables {
		applied, ignored, err := e.pullTable(ctx, table, groupIDs)
		res.Applied += applied
		res.Ignored += ignored
		if err != nil {
			slog.Warn("pull table failed", "table", table, "error", err)
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

func groupIDsFromMemberships(raws []json.RawMessage) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, raw := range raws {
		var m models.Membership
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode remote membership: %w", err)
		}
		if m.GroupID != "" && !seen[m.GroupID] {
			seen[m.GroupID] = true
			ids = append(ids, m.GroupID)
		}
	}
	return ids, nil
}

func (e *Engine) pullTable(ctx context.Context, table string, groupIDs []string) (applied, ignored int, err error) {
	raws, err := e.remote.ListByGroupIDs(ctx, table, groupIDs)
	if err != nil {
		return 0, 0, err
	}

	for _, raw := range raws {
		ok, err := e.mergeRecord(ctx, table, raw)
		if err != nil {
			return applied, ignored, err
		}
		if ok {
			applied++
			pulledTotal.Inc()
		} else {
			ignored++
			conflictsIgnoredTotal.Inc()
		}
	}
	return applied, ignored, nil
}

// mergeRecord applies one remote record with last-write-wins. It
// reports true if the record was applied, false if the local copy won.
func (e *Engine) mergeRecord(ctx context.Context, table string, raw json.RawMessage) (bool, error) {
	switch table {
	case models.TableGroups:
		var g models.Group
		if err := json.Unmarshal(raw, &g); err != nil {
			return false, fmt.Errorf("failed to decode remote group: %w", err)
		}
		local, err := e.store.GetGroup(ctx, g.ID)
		if won, err := localWins(local, err, g.ID, g.LastModifiedAt, table); won || err != nil {
			return false, err
		}
		return true, e.store.PutGroup(ctx, &g)

	case models.TableMemberships:
		var m models.Membership
		if err := json.Unmarshal(raw, &m); err != nil {
			return false, fmt.Errorf("failed to decode remote membership: %w", err)
		}
		local, err := e.store.GetMembership(ctx, m.ID)
		if won, err := localWins(local, err, m.ID, m.LastModifiedAt, table); won || err != nil {
			return false, err
		}
		return true, e.store.PutMembership(ctx, &m)

	case models.TableExpenses:
		var ex models.Expense
		if err := json.Unmarshal(raw, &ex); err != nil {
			return false, fmt.Errorf("failed to decode remote expense: %w", err)
		}
		local, err := e.store.GetExpense(ctx, ex.ID)
		if won, err := localWins(local, err, ex.ID, ex.LastModifiedAt, table); won || err != nil {
			return false, err
		}
		return true, e.store.PutExpense(ctx, &ex)

	case models.TableSplits:
		var sp models.ExpenseSplit
		if err := json.Unmarshal(raw, &sp); err != nil {
			return false, fmt.Errorf("failed to decode remote split: %w", err)
		}
		local, err := e.store.GetSplit(ctx, sp.ID)
		if won, err := localWins(local, err, sp.ID, sp.LastModifiedAt, table); won || err != nil {
			return false, err
		}
		return true, e.store.PutSplit(ctx, &sp)

	case models.TableSettlements:
		var st models.Settlement
		if err := json.Unmarshal(raw, &st); err != nil {
			return false, fmt.Errorf("failed to decode remote settlement: %w", err)
		}
		local, err := e.store.GetSettlement(ctx, st.ID)
		if won, err := localWins(local, err, st.ID, st.LastModifiedAt, table); won || err != nil {
			return false, err
		}
		return true, e.store.PutSettlement(ctx, &st)

	default:
		return false, fmt.Errorf("unknown synced table %q", table)
	}
}

// timestamped is satisfied by every domain record pointer.
type timestamped interface {
	*models.Group | *models.Membership | *models.Expense | *models.ExpenseSplit | *models.Settlement
}

// localWins decides the last-write-wins comparison for one record.
// getErr is the result of the local lookup: ErrNotFound means the
// remote record applies unconditionally, any other error aborts the
// table. An existing local copy wins unless the remote timestamp is
// strictly greater.
func localWins[T timestamped](local T, getErr error, id string, remoteTS int64, table string) (bool, error) {
	if getErr != nil {
		if errors.Is(getErr, storage.ErrNotFound) {
			return false, nil
		}
		return false, getErr
	}
	localTS := lastModified(local)
	if remoteTS > localTS {
		return false, nil
	}
	slog.Debug("conflict ignored, local copy wins",
		"table", table, "record_id", id, "local_ts", localTS, "remote_ts", remoteTS)
	return true, nil
}

func lastModified[T timestamped](rec T) int64 {
	switch v := any(rec).(type) {
	case *models.Group:
		return v.LastModifiedAt
	case *models.Membership:
		return v.LastModifiedAt
	case *models.Expense:
		return v.LastModifiedAt
	case *models.ExpenseSplit:
		return v.LastModifiedAt
	case *models.Settlement:
		return v.LastModifiedAt
	default:
		return 0
	}
}

// SyncAll runs one full sync: push, then pull, in that order, so local
// intent drains before remote state is accepted. It refuses to start
// if a sync is already running or the engine believes it is offline.
// The status tracker is updated after every attempt, success or
// failure.
func (e *Engine) SyncAll(ctx context.Context) (Result, error) {
	if !e.syncing.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	if e.conn != nil && !e.conn.Online() {
		return Result{}, ErrOffline
	}

	e.status.SetSyncing(true)
	defer e.status.SetSyncing(false)

	var res Result
	var errs []error

	pushRes, err := e.Push(ctx)
	res.Push = pushRes
	if err != nil {
		errs = append(errs, err)
	}
	if pushRes.Failed > 0 {
		errs = append(errs, fmt.Errorf("%d outbox entries failed to push", pushRes.Failed))
	}

	pullRes, err := e.Pull(ctx)
	res.Pull = pullRes
	if err != nil {
		errs = append(errs, err)
	}

	e.status.SetLastSync(e.clock.Now())
	if pending, err := e.store.CountOutbox(ctx, e.userID); err == nil {
		e.status.SetPending(pending)
	} else {
		slog.Error("failed to count pending changes", "error", err)
	}

	if err := errors.Join(errs...); err != nil {
		syncRunsTotal.WithLabelValues("failure").Inc()
		return res, err
	}

	syncRunsTotal.WithLabelValues("success").Inc()
	slog.Info("sync complete",
		"pushed", res.Push.Synced, "pulled", res.Pull.Applied, "ignored", res.Pull.Ignored)
	return res, nil
}
