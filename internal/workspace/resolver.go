package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"cartshare/internal/database"
	"cartshare/internal/models"
)

// bootstrapName is the workspace created for a user whose first
// refresh finds nothing at all.
const bootstrapName = "Shared Home"

const localIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Resolver produces the authoritative workspace snapshot for a user
// and owns the schema-ready flag every create/invite operation
// branches on.
type Resolver struct {
	store Store
	kv    KV
	log   *slog.Logger

	mu          sync.Mutex
	gen         uint64
	last        Snapshot
	schemaReady bool
}

// NewResolver creates a resolver. Schema-ready starts true: without a
// refresh there is nothing to infer, so the neutral default applies.
func NewResolver(store Store, kv KV, log *slog.Logger) *Resolver {
	return &Resolver{
		store:       store,
		kv:          kv,
		log:         log,
		schemaReady: true,
	}
}

// SchemaReady reports whether the last refresh found the workspace
// tables queryable.
func (r *Resolver) SchemaReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schemaReady
}

func (r *Resolver) setSchemaReady(ready bool) {
	r.mu.Lock()
	r.schemaReady = ready
	r.mu.Unlock()
}

// Current returns the snapshot committed by the most recent refresh.
func (r *Resolver) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// beginRefresh allocates a generation number. Only the refresh holding
// the latest generation may commit its result, so overlapping
// refreshes cannot clobber newer state with older reads.
func (r *Resolver) beginRefresh() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

func (r *Resolver) commit(gen uint64, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// A newer refresh started after this one; its result wins.
		return
	}
	r.last = snap
	r.schemaReady = snap.SchemaReady
}

// Refresh resolves the user's workspaces, pending invites, and active
// workspace id. The three remote reads run concurrently and all must
// settle; any failure, schema-missing or otherwise, degrades to the
// local fallback rather than surfacing an error.
func (r *Resolver) Refresh(ctx context.Context, ident Identity) (Snapshot, error) {
	gen := r.beginRefresh()

	if ident.UserID == 0 {
		snap := Snapshot{Workspaces: []Workspace{}, Invites: []Invite{}, SchemaReady: true}
		r.commit(gen, snap)
		return snap, nil
	}
	email := strings.ToLower(strings.TrimSpace(ident.Email))

	var (
		wg      sync.WaitGroup
		owned   []models.Workspace
		member  []models.Workspace
		pending []database.PendingInvite

		ownedErr, memberErr, pendingErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		owned, ownedErr = r.store.OwnedWorkspaces(ctx, ident.UserID)
	}()
	go func() {
		defer wg.Done()
		member, memberErr = r.store.MemberWorkspaces(ctx, email)
	}()
	go func() {
		defer wg.Done()
		pending, pendingErr = r.store.PendingWorkspaceInvites(ctx, email)
	}()
	wg.Wait()

	if err := firstError(ownedErr, memberErr, pendingErr); err != nil {
		if !errors.Is(err, database.ErrSchemaMissing) {
			// The cause is indistinguishable from a missing schema
			// without failing the UI, so degrade the same way.
			r.log.Warn("workspace refresh failed, using local fallback", "user", ident.UserID, "error", err)
		}
		snap := r.resolveFallback(ident)
		r.commit(gen, snap)
		return snap, nil
	}

	workspaces := mergeByID(owned, member)
	if len(workspaces) == 0 {
		created, err := r.bootstrap(ctx, ident, email)
		if err != nil {
			r.log.Warn("workspace bootstrap failed, using local fallback", "user", ident.UserID, "error", err)
			snap := r.resolveFallback(ident)
			r.commit(gen, snap)
			return snap, nil
		}
		workspaces = []Workspace{created}
	}

	sortWorkspaces(workspaces, ident.UserID)

	snap := Snapshot{
		Workspaces:        workspaces,
		Invites:           normalizeInvites(pending),
		ActiveWorkspaceID: r.resolveActive(ident.UserID, workspaces),
		SchemaReady:       true,
	}
	r.commit(gen, snap)
	return snap, nil
}

// bootstrap guarantees every authenticated user has at least one
// workspace after their first refresh.
func (r *Resolver) bootstrap(ctx context.Context, ident Identity, email string) (Workspace, error) {
	created, err := r.store.InsertWorkspace(ctx, bootstrapName, ident.UserID)
	if err != nil {
		return Workspace{}, err
	}
	if err := r.store.UpsertWorkspaceMember(ctx, created.ID, email, models.RoleOwner, ident.UserID); err != nil {
		return Workspace{}, err
	}
	return fromModel(*created), nil
}

// resolveFallback builds the snapshot for local mode: the synthetic
// personal workspace first, then whatever was saved locally for this
// user, sanitized. Invites are always empty here.
func (r *Resolver) resolveFallback(ident Identity) Snapshot {
	workspaces := append([]Workspace{personalWorkspace()}, r.loadLocalWorkspaces(ident.UserID)...)
	return Snapshot{
		Workspaces:        workspaces,
		Invites:           []Invite{},
		ActiveWorkspaceID: r.resolveActive(ident.UserID, workspaces),
		SchemaReady:       false,
	}
}

// loadLocalWorkspaces reads and sanitizes the per-user fallback list.
// The personal sentinel is never part of it; stored duplicates of it
// are dropped.
func (r *Resolver) loadLocalWorkspaces(userID int) []Workspace {
	raw, ok, err := r.kv.Get(fallbackKey(userID))
	if err != nil {
		r.log.Warn("reading local workspace list failed", "user", userID, "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var stored []Workspace
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		r.log.Warn("local workspace list is corrupt, ignoring", "user", userID, "error", err)
		return nil
	}

	sanitized := make([]Workspace, 0, len(stored))
	for _, w := range stored {
		if w.ID == models.PersonalWorkspaceID {
			continue
		}
		if strings.TrimSpace(w.ID) == "" {
			w.ID = newLocalID()
		}
		if strings.TrimSpace(w.Name) == "" {
			w.Name = "Workspace"
		}
		w.Fallback = true
		sanitized = append(sanitized, w)
	}
	return sanitized
}

func (r *Resolver) saveLocalWorkspaces(userID int, workspaces []Workspace) error {
	data, err := json.Marshal(workspaces)
	if err != nil {
		return fmt.Errorf("encode local workspace list: %w", err)
	}
	return r.kv.Set(fallbackKey(userID), string(data))
}

// resolveActive applies the pointer rule: keep the persisted id when
// it names a workspace in the set, otherwise fall back to the first
// workspace; persist whichever id is chosen.
func (r *Resolver) resolveActive(userID int, workspaces []Workspace) string {
	if len(workspaces) == 0 {
		return ""
	}

	persisted, _, err := r.kv.Get(activeKey(userID))
	if err != nil {
		r.log.Warn("reading active workspace pointer failed", "user", userID, "error", err)
	}

	active := workspaces[0].ID
	for _, w := range workspaces {
		if w.ID == persisted {
			active = persisted
			break
		}
	}

	if active != persisted {
		if err := r.kv.Set(activeKey(userID), active); err != nil {
			r.log.Warn("persisting active workspace pointer failed", "user", userID, "error", err)
		}
	}
	return active
}

// SetActiveWorkspace persists the pointer unconditionally. Callers are
// expected to pass ids from the current set; a stale id self-corrects
// on the next refresh.
func (r *Resolver) SetActiveWorkspace(ident Identity, workspaceID string) error {
	return r.kv.Set(activeKey(ident.UserID), workspaceID)
}

// CreateWorkspace creates a workspace remotely when the schema is
// ready, locally otherwise. A schema-missing error discovered
// mid-flight flips the flag and retries the creation exactly once as a
// local operation.
func (r *Resolver) CreateWorkspace(ctx context.Context, ident Identity, name string) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	return r.createWorkspace(ctx, ident, name, true)
}

// remoteAllowed bounds the retry-as-local fallback to a single level.
func (r *Resolver) createWorkspace(ctx context.Context, ident Identity, name string, remoteAllowed bool) (Workspace, error) {
	if !remoteAllowed || !r.SchemaReady() {
		return r.createLocal(ident, name)
	}

	email := strings.ToLower(strings.TrimSpace(ident.Email))

	created, err := r.store.InsertWorkspace(ctx, name, ident.UserID)
	switch {
	case errors.Is(err, database.ErrSchemaMissing):
		r.setSchemaReady(false)
		return r.createWorkspace(ctx, ident, name, false)
	case errors.Is(err, database.ErrUniqueViolation):
		return Workspace{}, ErrDuplicateName
	case err != nil:
		return Workspace{}, err
	}

	// The workspace row is not rolled back if the membership upsert
	// fails; the next refresh still surfaces it via ownership.
	if err := r.store.UpsertWorkspaceMember(ctx, created.ID, email, models.RoleOwner, ident.UserID); err != nil {
		return Workspace{}, err
	}

	if _, err := r.Refresh(ctx, ident); err != nil {
		r.log.Warn("refresh after workspace create failed", "user", ident.UserID, "error", err)
	}

	workspace := fromModel(*created)
	if err := r.SetActiveWorkspace(ident, workspace.ID); err != nil {
		r.log.Warn("activating created workspace failed", "user", ident.UserID, "error", err)
	}
	return workspace, nil
}

func (r *Resolver) createLocal(ident Identity, name string) (Workspace, error) {
	existing := r.loadLocalWorkspaces(ident.UserID)

	for _, w := range append([]Workspace{personalWorkspace()}, existing...) {
		if strings.EqualFold(w.Name, name) {
			return Workspace{}, ErrDuplicateName
		}
	}

	workspace := Workspace{
		ID:        newLocalID(),
		Name:      name,
		CreatedBy: ident.UserID,
		CreatedAt: time.Now().UTC(),
		Fallback:  true,
	}

	if err := r.saveLocalWorkspaces(ident.UserID, append(existing, workspace)); err != nil {
		return Workspace{}, err
	}
	if err := r.SetActiveWorkspace(ident, workspace.ID); err != nil {
		r.log.Warn("activating created workspace failed", "user", ident.UserID, "error", err)
	}
	return workspace, nil
}

// mergeByID folds owned and member workspace rows into one de-duped
// view set. Both sides come from the same table, so the first copy of
// an id is as good as any.
func mergeByID(owned, member []models.Workspace) []Workspace {
	merged := make([]Workspace, 0, len(owned)+len(member))
	seen := make(map[string]struct{}, len(owned)+len(member))
	for _, w := range append(append([]models.Workspace{}, owned...), member...) {
		id := w.ID.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, fromModel(w))
	}
	return merged
}

// sortWorkspaces orders user-owned workspaces before others, then by
// name, case-sensitively, ties kept stable.
func sortWorkspaces(workspaces []Workspace, userID int) {
	sort.SliceStable(workspaces, func(i, j int) bool {
		iOwned := workspaces[i].CreatedBy == userID
		jOwned := workspaces[j].CreatedBy == userID
		if iOwned != jOwned {
			return iOwned
		}
		return workspaces[i].Name < workspaces[j].Name
	})
}

// normalizeInvites collapses the joined workspace name to a single
// value per invite; a missing workspace row leaves the name empty.
func normalizeInvites(pending []database.PendingInvite) []Invite {
	invites := make([]Invite, 0, len(pending))
	for _, p := range pending {
		invites = append(invites, Invite{
			ID:            p.ID.String(),
			WorkspaceID:   p.WorkspaceID.String(),
			WorkspaceName: p.WorkspaceName,
			Role:          p.Role,
			InvitedBy:     p.InvitedBy,
		})
	}
	return invites
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func newLocalID() string {
	suffix, err := gonanoid.Generate(localIDAlphabet, 8)
	if err != nil {
		// gonanoid only fails when the system RNG does.
		suffix = fmt.Sprintf("%08d", time.Now().Nanosecond())
	}
	return fmt.Sprintf("ws_%d_%s", time.Now().UnixMilli(), suffix)
}

func activeKey(userID int) string {
	return fmt.Sprintf("active_workspace:%d", userID)
}

func fallbackKey(userID int) string {
	return fmt.Sprintf("workspaces:%d", userID)
}
