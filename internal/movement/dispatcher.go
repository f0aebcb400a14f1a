package movement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"IslandWar/internal/alliance"
	"IslandWar/internal/city"
	"IslandWar/internal/player"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/logs"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
)

// heroWoundDuration keeps a defeated hero out of further fights.
const heroWoundDuration = 12 * time.Hour

// Notifier pushes events to connected clients. A nil Notifier is valid;
// offline players read the outcome from their report inbox.
type Notifier interface {
	Push(accountID, event string, payload any)
}

// DispatcherConfig carries the knobs the poll loop needs.
type DispatcherConfig struct {
	WorldID          string
	BatchLimit       int
	FoundingDuration time.Duration
	// Draw supplies uniform [0,1) numbers for scouting rolls; nil uses
	// math/rand.
	Draw func() float64
}

// Dispatcher is the single movement processor: a fixed-interval poll over
// due movements, each resolved in its own store transaction so one bad
// document never stalls the lane.
type Dispatcher struct {
	store     store.Store
	alliances *alliance.Service
	notifier  Notifier
	cfg       DispatcherConfig
}

func NewDispatcher(st store.Store, alliances *alliance.Service, notifier Notifier, cfg DispatcherConfig) *Dispatcher {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 64
	}
	if cfg.FoundingDuration <= 0 {
		cfg.FoundingDuration = 4 * time.Hour
	}
	return &Dispatcher{store: st, alliances: alliances, notifier: notifier, cfg: cfg}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logs.Info("movement dispatcher started",
		zap.String("worldId", d.cfg.WorldID),
		zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logs.Info("movement dispatcher stopped", zap.String("worldId", d.cfg.WorldID))
			return
		case <-ticker.C:
			if _, err := d.ProcessDue(ctx); err != nil {
				logs.Error("movement poll failed", zap.Error(err))
			}
		}
	}
}

// ProcessDue resolves every movement whose arrival time has passed, oldest
// first, and returns how many were handled. A failing movement is logged
// and skipped; it stays due and is retried on the next poll.
func (d *Dispatcher) ProcessDue(ctx context.Context) (int, error) {
	now := d.store.Now()
	var due []Movement
	q := store.Query{
		Filters: []store.Filter{
			store.Eq("worldId", d.cfg.WorldID),
			store.Lte("arrivalTime", now),
		},
		OrderBy: "arrivalTime",
		Limit:   d.cfg.BatchLimit,
	}
	if err := d.store.Query(ctx, Collection, q, &due); err != nil {
		return 0, err
	}

	processed := 0
	for i := range due {
		m := &due[i]
		if err := d.process(ctx, m); err != nil {
			logs.Error("movement processing failed",
				zap.String("movementId", m.ID),
				zap.String("type", string(m.Type)),
				zap.String("status", string(m.Status)),
				zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

func (d *Dispatcher) process(ctx context.Context, m *Movement) error {
	if m.Status == StatusReturning {
		return d.processReturn(ctx, m)
	}
	if m.Status == StatusFounding {
		return d.processFoundingComplete(ctx, m)
	}
	switch m.Type {
	case TypeAttack:
		return d.processAttack(ctx, m)
	case TypeAttackVillage:
		return d.processVillage(ctx, m)
	case TypeAttackRuin:
		return d.processRuin(ctx, m)
	case TypeAttackGodTown:
		return d.processGodTown(ctx, m)
	case TypeScout:
		return d.processScout(ctx, m)
	case TypeReinforce:
		return d.processReinforce(ctx, m)
	case TypeTrade:
		return d.processTrade(ctx, m)
	case TypeFoundCity:
		return d.processFoundingArrival(ctx, m)
	case TypeAssignHero:
		return d.processAssignHero(ctx, m)
	default:
		// Unknown types would retry forever; drop them with a trace.
		logs.Warn("dropping movement of unknown type",
			zap.String("movementId", m.ID), zap.String("type", string(m.Type)))
		return d.store.BatchWrite(ctx, []store.Op{store.Delete(Collection, m.ID)})
	}
}

// reload fetches the movement again inside the transaction. A nil return
// with ok=false means it was already consumed by an earlier commit and the
// caller should do nothing.
func (d *Dispatcher) reload(tx store.Tx, id string) (*Movement, bool, error) {
	var cur Movement
	err := tx.Get(Collection, id, &cur)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &cur, true, nil
}

func (d *Dispatcher) newReport(tx store.Tx, worldID, ownerID, kind, title string, body report.Body, out *[]*report.Report) error {
	id, err := utils.NextStringID()
	if err != nil {
		return err
	}
	r := report.New(id, worldID, ownerID, kind, title, d.store.Now(), body)
	tx.Put(report.Collection, r.ID, r)
	*out = append(*out, r)
	return nil
}

func (d *Dispatcher) notify(reports []*report.Report) {
	if d.notifier == nil {
		return
	}
	for _, r := range reports {
		d.notifier.Push(r.OwnerID, "report.new", r)
	}
}

// profile loads a player profile inside the transaction; missing profiles
// come back nil without error.
func (d *Dispatcher) profile(tx store.Tx, accountID string) (*player.Profile, error) {
	if accountID == "" {
		return nil, nil
	}
	var p player.Profile
	err := tx.Get(player.Collection, accountID, &p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// cityModifiers resolves the alliance bonuses for a city owner's alliance.
func (d *Dispatcher) cityModifiers(ctx context.Context, p *player.Profile) city.Modifiers {
	if p == nil || p.AllianceID == "" {
		return city.Modifiers{}
	}
	b, err := d.alliances.Bonuses(ctx, d.cfg.WorldID, p.AllianceID)
	if err != nil {
		logs.Warn("alliance bonus lookup failed",
			zap.String("allianceId", p.AllianceID), zap.Error(err))
		return city.Modifiers{}
	}
	return city.Modifiers{AllianceProduction: b.Production, AllianceWarehouse: b.Warehouse}
}

func (d *Dispatcher) draw() float64 {
	if d.cfg.Draw != nil {
		return d.cfg.Draw()
	}
	return defaultDraw()
}
