package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smart-break-quiz/internal/app"
	"smart-break-quiz/internal/config"
	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/game"
	"smart-break-quiz/internal/infra/memory"
	"smart-break-quiz/internal/infra/sqlite"
	"smart-break-quiz/internal/leaderboard"
	"smart-break-quiz/internal/logging"
	"smart-break-quiz/internal/profile"
	"smart-break-quiz/internal/question"
	"smart-break-quiz/internal/session"
)

type playOptions struct {
	userID string
	name   string
	gameID string
	dbPath string
}

// NewPlayCmd runs one game session in the terminal against the local SQLite store.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if opts.dbPath == "" {
				opts.dbPath = cfg.SQLite.Path
			}
			if opts.dbPath == "" {
				opts.dbPath = "smart-break.db"
			}
			logger := logging.New("smart-break", cfg.Log.Level, cfg.Log.Format).Level(zerolog.WarnLevel)

			store, err := sqlite.Open(opts.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			p := &player{
				in:     bufio.NewScanner(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
				repo:   sqlite.NewProfileRepository(store),
				logger: logger,
				cfg:    sessionConfig(cfg.Session),
			}
			return p.run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id (defaults to the remembered local user)")
	cmd.Flags().StringVar(&opts.name, "name", "", "name for a new profile")
	cmd.Flags().StringVar(&opts.gameID, "game", "", "game id to play (prompted when empty)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides config)")
	return cmd
}

type player struct {
	in     *bufio.Scanner
	out    io.Writer
	repo   *sqlite.ProfileRepository
	logger zerolog.Logger
	cfg    session.Config
}

func (p *player) run(ctx context.Context, opts playOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	profiles := profile.NewService(p.repo, p.logger)
	board := leaderboard.NewService(p.repo, 0)
	service := app.NewGameService(memory.NewSessionStore(), profiles, question.NewGenerator(), board, app.Options{
		Session: p.cfg,
		Logger:  p.logger,
	})

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		for p.in.Scan() {
			select {
			case lines <- strings.TrimSpace(p.in.Text()):
			case <-done:
				return
			}
		}
	}()

	user, err := p.resolveUser(ctx, profiles, opts, lines)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Привет, %s! Уровень %d, очков: %d\n", user.Name, user.Level, user.Points)

	gameID := opts.gameID
	if gameID == "" {
		if gameID, err = p.chooseGame(lines); err != nil {
			return err
		}
	}

	run, err := service.Launch(ctx, user.ID, gameID)
	if err != nil {
		return err
	}
	if err := p.play(ctx, service, run, lines); err != nil {
		return err
	}

	entries, err := board.Top(ctx, user.ID, leaderboard.DefaultLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Рейтинг:")
	for _, e := range entries {
		marker := " "
		if e.IsCurrentUser {
			marker = "*"
		}
		fmt.Fprintf(p.out, "%s%2d. %s — %d очков, уровень %d\n", marker, e.Rank, e.Name, e.Points, e.Level)
	}
	return nil
}

func (p *player) resolveUser(ctx context.Context, profiles *profile.Service, opts playOptions, lines <-chan string) (domain.Profile, error) {
	userID := opts.userID
	if userID == "" {
		remembered, ok, err := p.repo.CurrentUserID(ctx)
		if err != nil {
			return domain.Profile{}, err
		}
		if ok {
			userID = remembered
		}
	}
	if userID != "" {
		user, err := profiles.Get(ctx, userID)
		if err == nil {
			return user, p.repo.RememberUserID(ctx, user.ID)
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, err
		}
	}

	name := opts.name
	for strings.TrimSpace(name) == "" {
		fmt.Fprint(p.out, "Как тебя зовут? ")
		line, ok := <-lines
		if !ok {
			return domain.Profile{}, io.ErrUnexpectedEOF
		}
		name = line
	}
	var (
		user domain.Profile
		err  error
	)
	if userID != "" {
		user, err = profiles.CreateWithID(ctx, userID, name)
	} else {
		user, err = profiles.Create(ctx, name)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return user, p.repo.RememberUserID(ctx, user.ID)
}

func (p *player) chooseGame(lines <-chan string) (string, error) {
	for _, g := range game.All() {
		fmt.Fprintf(p.out, "%2s. %s %s (%s, %s)\n", g.ID, g.Icon, g.Title, g.Category, g.Difficulty.Label())
	}
	for {
		fmt.Fprint(p.out, "Выбери игру: ")
		line, ok := <-lines
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		if _, err := game.Lookup(line); err == nil {
			return line, nil
		}
		fmt.Fprintln(p.out, "Нет такой игры.")
	}
}

// play drives one run until the results are acknowledged or input ends.
// Input is only consumed while a question is waiting for an answer.
func (p *player) play(ctx context.Context, service *app.GameService, run *app.Run, lines <-chan string) error {
	updates, cancel, err := service.Subscribe(ctx, run.ID)
	if err != nil {
		return err
	}
	defer cancel()

	shown := -1
	awaiting := false
	for {
		var input <-chan string
		if awaiting {
			input = lines
		}

		select {
		case <-ctx.Done():
			service.Close(ctx, run.ID)
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			switch snap.Phase {
			case session.PhaseAwaiting:
				if snap.Index != shown && snap.Selected == nil {
					shown = snap.Index
					p.printQuestion(snap)
					awaiting = true
				}
			case session.PhaseResolved:
				awaiting = false
				p.printResolution(snap)
			case session.PhaseCompleted:
				return p.finish(ctx, service, run)
			}
		case line, ok := <-input:
			if !ok {
				service.Close(ctx, run.ID)
				fmt.Fprintln(p.out, "Игра прервана.")
				return nil
			}
			option, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintln(p.out, "Введи номер ответа.")
				continue
			}
			if _, err := service.Answer(ctx, run.ID, option-1); err != nil {
				fmt.Fprintln(p.out, "Такого варианта нет.")
				continue
			}
			awaiting = false
		}
	}
}

func (p *player) printQuestion(snap session.Snapshot) {
	fmt.Fprintf(p.out, "\nВопрос %d из %d (%d сек.): %s\n", snap.Index+1, snap.Total, snap.TimeLeft, snap.Prompt)
	for i, option := range snap.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, option)
	}
}

func (p *player) printResolution(snap session.Snapshot) {
	if snap.CorrectAnswer == nil {
		return
	}
	answer := snap.Options[*snap.CorrectAnswer]
	switch {
	case snap.Selected == nil:
		fmt.Fprintf(p.out, "Время вышло! Правильный ответ: %s\n", answer)
	case snap.Correct != nil && *snap.Correct:
		fmt.Fprintf(p.out, "Верно! +%d (всего %d)\n", snap.PointsPerAnswer, snap.Score)
	default:
		fmt.Fprintf(p.out, "Неверно. Правильный ответ: %s\n", answer)
	}
}

func (p *player) finish(ctx context.Context, service *app.GameService, run *app.Run) error {
	result, err := service.Finish(ctx, run.ID)
	if err != nil {
		return err
	}
	s := result.Summary
	fmt.Fprintf(p.out, "\nРезультат: %d очков, %d из %d верно (%d%%)\n", s.Score, s.Correct, s.Questions, s.Accuracy)

	o := result.Outcome
	if o.LevelUp {
		fmt.Fprintf(p.out, "Новый уровень: %d!\n", o.Profile.Level)
	}
	if len(o.NewAchievements) > 0 {
		unlocked := map[string]bool{}
		for _, id := range o.NewAchievements {
			unlocked[id] = true
		}
		for _, a := range profile.Achievements(o.Profile) {
			if unlocked[a.ID] {
				fmt.Fprintf(p.out, "Достижение: %s %s\n", a.Icon, a.Title)
			}
		}
	}
	return nil
}
