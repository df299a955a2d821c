package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/runner"
	"github.com/cesizen/cesizen/internal/storage"
)

const (
	keyCtrlC = 3
	keyEnter = '\r'
)

var breatheUser string

var breatheCmd = &cobra.Command{
	Use:   "breathe <exercise-id>",
	Short: "Run a breathing exercise",
	Long: `Run a breathing exercise in the terminal.

Keys: p pause/resume, q stop, Enter to close a finished exercise.
When --db is set the session is recorded in the exercise log.`,
	Args: cobra.ExactArgs(1),
	RunE: runBreathe,
}

func init() {
	breatheCmd.Flags().StringVar(&breatheUser, "user", defaultUser(), "User the exercise log is recorded for")
}

func defaultUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "local"
}

func runBreathe(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.Errorf("invalid exercise id %q", args[0])
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	if repo != nil {
		defer repo.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exercise, err := catalogProvider(repo).GetExercise(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrExerciseNotFound) {
			return errors.Errorf("Exercice non trouvé: %d", id)
		}
		return err
	}

	s := &breathSession{
		ctrl:     runner.NewController(),
		out:      cmd.OutOrStdout(),
		repo:     repo,
		userID:   breatheUser,
		exercise: exercise,
		changed:  make(chan struct{}, 1),
		keys:     make(chan byte, 8),
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return errors.Wrap(err, "enabling raw terminal mode")
		}
		defer term.Restore(fd, state)
		s.interactive = true
		go readKeys(os.Stdin, s.keys)
	}

	return s.run(ctx)
}

// breathSession couples a controller with the terminal.
type breathSession struct {
	ctrl        *runner.Controller
	out         io.Writer
	repo        storage.Repository
	userID      string
	exercise    *domain.Exercise
	interactive bool

	changed chan struct{}
	keys    chan byte
}

func (s *breathSession) run(ctx context.Context) error {
	unsub := s.ctrl.Subscribe(func(runner.Snapshot) {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	})
	defer unsub()
	defer s.ctrl.Close()

	fmt.Fprintf(s.out, "%s\r\n", phaseStyle("").Render(s.exercise.Name))
	if s.interactive {
		fmt.Fprintf(s.out, "%s\r\n", dimStyle.Render("p: pause/reprendre  q: arrêter"))
	}

	if err := s.ctrl.Start(s.exercise); err != nil {
		return err
	}

	recorded := false
	for {
		select {
		case <-ctx.Done():
			return s.stop()

		case <-s.changed:
			snap := s.ctrl.Snapshot()
			fmt.Fprintf(s.out, "\r\033[K%s", renderSnapshot(snap))

			if snap.Stage != domain.StageFinished || recorded {
				continue
			}
			recorded = true
			s.record(snap, domain.LogCompleted)
			if !s.interactive {
				fmt.Fprint(s.out, "\r\n")
				return nil
			}
			fmt.Fprintf(s.out, "\r\n%s", dimStyle.Render("Entrée pour terminer"))

		case k := <-s.keys:
			switch k {
			case 'p', 'P':
				if s.ctrl.Snapshot().Paused() {
					_ = s.ctrl.Resume()
				} else {
					_ = s.ctrl.Pause()
				}
			case 'q', 'Q', keyCtrlC:
				return s.stop()
			case keyEnter, '\n':
				if s.ctrl.AcknowledgeFinish() == nil {
					fmt.Fprint(s.out, "\r\n")
					return nil
				}
			}
		}
	}
}

func (s *breathSession) stop() error {
	last, err := s.ctrl.Stop()
	if err == nil {
		s.record(last, domain.LogAbandoned)
	}
	fmt.Fprintf(s.out, "\r\n%s\r\n", dimStyle.Render("Exercice interrompu."))
	return nil
}

func (s *breathSession) record(snap runner.Snapshot, status domain.LogStatus) {
	if s.repo == nil || snap.Exercise == nil {
		return
	}

	l := domain.NewExerciseLog("", s.userID, snap.Exercise, status, snap.StartedAt, time.Now())
	l.CyclesCompleted = snap.CyclesCompleted
	l.PausedSeconds = int(snap.PausedFor.Seconds())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.SaveExerciseLog(ctx, l); err != nil {
		log.Error().Err(err).Msg("failed to record exercise log")
	}
}

func readKeys(r io.Reader, keys chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			keys <- buf[0]
		}
	}
}
