// Package engine exposes the combat engine as an application service:
// operations load a session snapshot from the repository, apply one
// mutation, and save it back under optimistic locking.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mezosauce/DNDDM-sub000/internal/game/ai"
	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
	"github.com/mezosauce/DNDDM-sub000/internal/scripting"
)

// Service orchestrates combat sessions over a Repository. Each operation is
// one load-mutate-save cycle; concurrent writers of the same combat are
// serialized by the repository's version check.
type Service struct {
	repo       Repository
	templates  map[string]*sheet.MonsterTemplate
	conditions *condition.Registry
	policies   *scripting.Manager
	roller     *dice.Roller
	logTail    int
	logger     *zap.Logger
}

// NewService creates a Service. All dice rolls run through a Roller that
// logs each roll at debug level.
//
// Precondition: repo, src, and logger must be non-nil. templates,
// conditions, and policies may be nil when the corresponding content is not
// loaded; operations needing them fail per-call.
func NewService(
	repo Repository,
	templates map[string]*sheet.MonsterTemplate,
	conditions *condition.Registry,
	policies *scripting.Manager,
	src dice.Source,
	logTail int,
	logger *zap.Logger,
) *Service {
	if logTail < 1 {
		logTail = 20
	}
	return &Service{
		repo:       repo,
		templates:  templates,
		conditions: conditions,
		policies:   policies,
		roller:     dice.NewLoggedRoller(src, logger),
		logTail:    logTail,
		logger:     logger,
	}
}

// CreateCombat starts a new encounter in the Setup phase and returns its id.
func (s *Service) CreateCombat(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	session := combat.NewSession(id, name, s.conditions)
	session.SetVersion(1)
	if err := s.repo.Create(ctx, session.Snapshot()); err != nil {
		return "", fmt.Errorf("creating combat %q: %w", name, err)
	}
	s.logger.Info("combat created",
		zap.String("combat_id", id),
		zap.String("name", name),
	)
	return id, nil
}

// AddCharacter adds a player character built by the caller and returns the
// new participant id.
func (s *Service) AddCharacter(ctx context.Context, combatID, name string, sb *sheet.StatBlock) (string, error) {
	id := uuid.NewString()
	err := s.withSession(ctx, combatID, func(session *combat.Session) error {
		_, err := session.AddCharacter(id, name, sb)
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("character joined combat",
		zap.String("combat_id", combatID),
		zap.String("participant_id", id),
		zap.String("name", name),
	)
	return id, nil
}

// AddMonster instantiates the named template into the combat and returns the
// new participant id.
func (s *Service) AddMonster(ctx context.Context, combatID, templateID string) (string, error) {
	tpl, ok := s.templates[templateID]
	if !ok {
		return "", fmt.Errorf("no monster template %q", templateID)
	}
	id := uuid.NewString()
	err := s.withSession(ctx, combatID, func(session *combat.Session) error {
		p, err := session.AddMonster(id, tpl.Name, tpl.Instantiate())
		if err != nil {
			return err
		}
		p.Policy = tpl.Policy
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("monster joined combat",
		zap.String("combat_id", combatID),
		zap.String("participant_id", id),
		zap.String("template", templateID),
	)
	return id, nil
}

// RollInitiative rolls initiative for every participant.
func (s *Service) RollInitiative(ctx context.Context, combatID string) error {
	return s.withSession(ctx, combatID, func(session *combat.Session) error {
		return session.RollInitiative(s.roller)
	})
}

// DetermineTurnOrder fixes the turn order from the rolled initiative.
func (s *Service) DetermineTurnOrder(ctx context.Context, combatID string) error {
	return s.withSession(ctx, combatID, func(session *combat.Session) error {
		return session.DetermineTurnOrder()
	})
}

// StartCombat moves the encounter into the Active phase.
func (s *Service) StartCombat(ctx context.Context, combatID string) error {
	return s.withSession(ctx, combatID, func(session *combat.Session) error {
		return session.StartCombat()
	})
}

// SubmitAction resolves one player action on the current turn.
func (s *Service) SubmitAction(ctx context.Context, combatID, actorID, actionID, targetID string, mode dice.Mode) (*combat.ActionResult, error) {
	var res *combat.ActionResult
	err := s.withSession(ctx, combatID, func(session *combat.Session) error {
		var err error
		res, err = session.SubmitAction(actorID, actionID, targetID, mode, s.roller)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("action resolved",
		zap.String("combat_id", combatID),
		zap.String("actor_id", actorID),
		zap.String("action_id", actionID),
		zap.String("line", res.LogLine),
	)
	return res, nil
}

// ResolveAITurn runs the current monster's policy and resolves the chosen
// action.
//
// Precondition: the encounter is Active and the current participant is a
// monster.
func (s *Service) ResolveAITurn(ctx context.Context, combatID string) (*combat.ActionResult, error) {
	var res *combat.ActionResult
	err := s.withSession(ctx, combatID, func(session *combat.Session) error {
		cur, err := session.CurrentParticipant()
		if err != nil {
			return err
		}
		if cur.Kind != combat.KindMonster {
			return fmt.Errorf("current turn belongs to %s, not a monster", cur.Name)
		}
		decision, err := s.policyFor(cur).ChooseAction(session, cur.ID)
		if err != nil {
			return err
		}
		res, err = session.SubmitAction(cur.ID, decision.ActionID, decision.TargetID, dice.Normal, s.roller)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ai turn resolved",
		zap.String("combat_id", combatID),
		zap.String("line", res.LogLine),
	)
	return res, nil
}

// policyFor resolves the participant's scripted policy, falling back to the
// built-in one when no script is loaded under that id.
func (s *Service) policyFor(p *combat.Participant) ai.Policy {
	if p.Policy != "" && s.policies != nil && s.policies.Has(p.Policy) {
		lp, err := ai.NewLuaPolicy(s.policies, p.Policy, s.logger)
		if err == nil {
			return lp
		}
	}
	return ai.FocusWeakest{}
}

// AdvanceTurn hands the turn to the next living participant.
func (s *Service) AdvanceTurn(ctx context.Context, combatID string) error {
	return s.withSession(ctx, combatID, func(session *combat.Session) error {
		return session.AdvanceTurn()
	})
}

// EndCombat ends the encounter with an explicit outcome, e.g. when the
// characters flee.
func (s *Service) EndCombat(ctx context.Context, combatID string, outcome combat.ResultOutcome, rewards string) error {
	return s.withSession(ctx, combatID, func(session *combat.Session) error {
		return session.EndCombat(outcome, rewards)
	})
}

// Summary returns the read model for the encounter, including the recent
// log tail.
func (s *Service) Summary(ctx context.Context, combatID string) (combat.Summary, error) {
	snap, err := s.repo.Get(ctx, combatID)
	if err != nil {
		return combat.Summary{}, fmt.Errorf("loading combat %q: %w", combatID, err)
	}
	session, err := combat.RestoreSession(snap, s.conditions)
	if err != nil {
		return combat.Summary{}, fmt.Errorf("restoring combat %q: %w", combatID, err)
	}
	return session.Summarize(s.logTail), nil
}

// withSession runs one load-mutate-save cycle. The mutation is not saved
// when fn returns an error, so rejected actions leave the stored state
// untouched.
func (s *Service) withSession(ctx context.Context, combatID string, fn func(*combat.Session) error) error {
	snap, err := s.repo.Get(ctx, combatID)
	if err != nil {
		return fmt.Errorf("loading combat %q: %w", combatID, err)
	}
	session, err := combat.RestoreSession(snap, s.conditions)
	if err != nil {
		return fmt.Errorf("restoring combat %q: %w", combatID, err)
	}
	if err := fn(session); err != nil {
		return err
	}
	session.SetVersion(snap.Version + 1)
	if err := s.repo.Save(ctx, session.Snapshot(), snap.Version); err != nil {
		return fmt.Errorf("saving combat %q: %w", combatID, err)
	}
	return nil
}
