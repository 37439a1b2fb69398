// Package main provides the combat simulator binary: it assembles a party
// and a monster group, runs the encounter with every turn driven by AI
// policies, and prints the combat log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mezosauce/DNDDM-sub000/internal/config"
	"github.com/mezosauce/DNDDM-sub000/internal/engine"
	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
	"github.com/mezosauce/DNDDM-sub000/internal/game/condition"
	"github.com/mezosauce/DNDDM-sub000/internal/game/dice"
	"github.com/mezosauce/DNDDM-sub000/internal/game/encounter"
	"github.com/mezosauce/DNDDM-sub000/internal/game/sheet"
	"github.com/mezosauce/DNDDM-sub000/internal/observability"
	"github.com/mezosauce/DNDDM-sub000/internal/scripting"
	"github.com/mezosauce/DNDDM-sub000/internal/storage/postgres"
)

// maxRounds guards against stalemates between undamaging combatants.
const maxRounds = 100

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounterName := flag.String("name", "Skirmish", "encounter name")
	monsterIDs := flag.String("monsters", "goblin,goblin", "comma-separated monster template ids")
	encounterID := flag.String("encounter", "", "encounter definition id (overrides -monsters and -name)")
	useDB := flag.Bool("db", false, "persist the encounter to PostgreSQL instead of memory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	templates, err := sheet.LoadTemplates(cfg.Engine.MonstersDir)
	if err != nil {
		logger.Fatal("loading monster templates", zap.Error(err))
	}
	conditions, err := condition.LoadDirectory(cfg.Engine.ConditionsDir)
	if err != nil {
		logger.Fatal("loading condition definitions", zap.Error(err))
	}
	name := *encounterName
	monsters := strings.Split(*monsterIDs, ",")
	if *encounterID != "" {
		encounters, err := encounter.LoadDirectory(cfg.Engine.EncountersDir)
		if err != nil {
			logger.Fatal("loading encounter definitions", zap.Error(err))
		}
		def, ok := encounters[*encounterID]
		if !ok {
			logger.Fatal("unknown encounter", zap.String("encounter", *encounterID))
		}
		name = def.Name
		monsters = def.TemplateIDs()
	}

	policies := scripting.NewManager(logger)
	defer policies.Close()
	if err := policies.LoadDirectory(cfg.Engine.PoliciesDir, cfg.Engine.LuaInstructionLimit); err != nil {
		logger.Fatal("loading policy scripts", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("monster_templates", len(templates)),
		zap.Int("conditions", len(conditions.All())),
		zap.Duration("elapsed", time.Since(start)),
	)

	var repo engine.Repository = engine.NewMemoryRepository()
	if *useDB {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewCombatRepository(pool.DB())
	}

	svc := engine.NewService(repo, templates, conditions, policies,
		dice.NewCryptoSource(), cfg.Engine.LogTail, logger)

	if err := run(ctx, svc, name, monsters); err != nil {
		logger.Fatal("running encounter", zap.Error(err))
	}
	logger.Info("encounter complete", zap.Duration("elapsed", time.Since(start)))
}

// run drives one encounter from setup to its end and prints the log.
func run(ctx context.Context, svc *engine.Service, name string, monsterIDs []string) error {
	combatID, err := svc.CreateCombat(ctx, name)
	if err != nil {
		return err
	}

	party := map[string]*sheet.StatBlock{
		"Brom": fighterBlock(),
		"Sela": clericBlock(),
	}
	ids := make(map[string]string, len(party))
	for _, n := range []string{"Brom", "Sela"} {
		id, err := svc.AddCharacter(ctx, combatID, n, party[n])
		if err != nil {
			return err
		}
		ids[n] = id
	}
	for _, tpl := range monsterIDs {
		if _, err := svc.AddMonster(ctx, combatID, strings.TrimSpace(tpl)); err != nil {
			return err
		}
	}

	if err := svc.RollInitiative(ctx, combatID); err != nil {
		return err
	}
	if err := svc.DetermineTurnOrder(ctx, combatID); err != nil {
		return err
	}
	if err := svc.StartCombat(ctx, combatID); err != nil {
		return err
	}

	sum, err := svc.Summary(ctx, combatID)
	if err != nil {
		return err
	}
	for sum.Phase == combat.PhaseActive.String() && sum.Round <= maxRounds {
		if err := playTurn(ctx, svc, combatID, sum, ids); err != nil {
			return err
		}
		if sum, err = svc.Summary(ctx, combatID); err != nil {
			return err
		}
		if sum.Phase != combat.PhaseActive.String() {
			break
		}
		if err := svc.AdvanceTurn(ctx, combatID); err != nil {
			return err
		}
		if sum, err = svc.Summary(ctx, combatID); err != nil {
			return err
		}
	}
	if sum.Phase == combat.PhaseActive.String() {
		if err := svc.EndCombat(ctx, combatID, combat.ResultFled, ""); err != nil {
			return err
		}
		if sum, err = svc.Summary(ctx, combatID); err != nil {
			return err
		}
	}

	printReport(sum)
	return nil
}

// playTurn resolves the current turn: monsters run their policy, characters
// run a simple focus-fire script so the simulation needs no player input.
func playTurn(ctx context.Context, svc *engine.Service, combatID string, sum combat.Summary, ids map[string]string) error {
	cur := currentParticipant(sum)
	if cur == nil {
		return fmt.Errorf("no current participant in summary for %q", combatID)
	}
	if cur.Kind == combat.KindMonster.String() {
		_, err := svc.ResolveAITurn(ctx, combatID)
		return err
	}

	target := weakestMonster(sum)
	if target == "" {
		return fmt.Errorf("no living monster for %s to attack", cur.Name)
	}
	_, err := svc.SubmitAction(ctx, combatID, cur.ID, "attack", target, dice.Normal)
	return err
}

func currentParticipant(sum combat.Summary) *combat.ParticipantSummary {
	for i := range sum.Participants {
		if sum.Participants[i].Name == sum.CurrentTurn {
			return &sum.Participants[i]
		}
	}
	return nil
}

// weakestMonster picks the living monster with the lowest HP fraction.
func weakestMonster(sum combat.Summary) string {
	bestID := ""
	bestFrac := 2.0
	for _, p := range sum.Participants {
		if p.Kind != combat.KindMonster.String() || !p.Alive {
			continue
		}
		frac := float64(p.CurrentHP) / float64(p.MaxHP)
		if frac < bestFrac {
			bestFrac = frac
			bestID = p.ID
		}
	}
	return bestID
}

func printReport(sum combat.Summary) {
	fmt.Fprintf(os.Stdout, "=== %s (%s", sum.Name, sum.Phase)
	if sum.Result != nil {
		fmt.Fprintf(os.Stdout, ": %s after %d rounds", sum.Result.Outcome, sum.Result.Rounds)
	}
	fmt.Fprintln(os.Stdout, ") ===")
	for _, p := range sum.Participants {
		status := "up"
		if !p.Alive {
			status = "down"
		}
		fmt.Fprintf(os.Stdout, "%-12s %s  %d/%d HP  AC %d  [%s]\n",
			p.Name, p.Kind, p.CurrentHP, p.MaxHP, p.AC, status)
	}
	fmt.Fprintln(os.Stdout)
	for _, line := range sum.RecentLog {
		fmt.Fprintln(os.Stdout, line)
	}
}

// fighterBlock builds a sword-and-board fighter.
func fighterBlock() *sheet.StatBlock {
	return sheet.NewStatBlock(3, 28, 17, sheet.AbilityScores{
		Strength: 16, Dexterity: 12, Constitution: 14,
		Intelligence: 10, Wisdom: 11, Charisma: 10,
	}, []*sheet.ResourcePool{
		sheet.NewResourcePool("second_wind", 1),
	}, []sheet.Action{
		{ID: "longsword", Name: "Longsword", Kind: sheet.ActionAttack,
			Die: int(dice.D8), DiceCount: 1, Ability: sheet.Strength},
		{ID: "second_wind", Name: "Second Wind", Kind: sheet.ActionHeal,
			Die: int(dice.D10), DiceCount: 1,
			Cost: &sheet.ResourceCost{Pool: "second_wind", Amount: 1}},
	})
}

// clericBlock builds a war cleric with a pair of first-level slots.
func clericBlock() *sheet.StatBlock {
	return sheet.NewStatBlock(3, 21, 16, sheet.AbilityScores{
		Strength: 14, Dexterity: 10, Constitution: 13,
		Intelligence: 10, Wisdom: 16, Charisma: 12,
	}, []*sheet.ResourcePool{
		sheet.NewResourcePool("spell_slots_1", 2),
	}, []sheet.Action{
		{ID: "mace", Name: "Mace", Kind: sheet.ActionAttack,
			Die: int(dice.D6), DiceCount: 1, Ability: sheet.Strength},
		{ID: "cure_wounds", Name: "Cure Wounds", Kind: sheet.ActionHeal,
			Die: int(dice.D8), DiceCount: 1, Ability: sheet.Wisdom,
			Cost: &sheet.ResourceCost{Pool: "spell_slots_1", Amount: 1}},
		{ID: "guiding_bolt", Name: "Guiding Bolt", Kind: sheet.ActionDamage,
			Die: int(dice.D6), DiceCount: 4,
			Cost: &sheet.ResourceCost{Pool: "spell_slots_1", Amount: 1}},
	})
}
