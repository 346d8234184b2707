package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/ronpa/internal/debate"
	"github.com/abhisek/ronpa/internal/llm"
	"github.com/abhisek/ronpa/internal/ui/theme"
)

var sparCmd = &cobra.Command{
	Use:   "spar",
	Short: "Argue a motion against the coach",
	Long: `Start (or resume) a sparring round. Type an argument and press enter to
hear the coach's rebuttal as it streams in.

Commands:
  /hint <draft>   suggest how to strengthen a draft before sending it
  /score          judge your arguments so far
  /quit           end the round`,
	RunE: func(cmd *cobra.Command, args []string) error {
		motion, _ := cmd.Flags().GetString("motion")
		sideFlag, _ := cmd.Flags().GetString("side")
		resume, _ := cmd.Flags().GetString("resume")

		if err := cfg.LLM.Validate(); err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), logger)
		if err != nil {
			return err
		}
		coach := debate.NewCoach(provider, st.TurnRepo(), cfg.Coach, logger)
		defer coach.Close()

		var s *debate.Session
		if resume != "" {
			s, err = coach.Resume(ctx, resume)
		} else {
			if motion == "" {
				return errors.New("--motion is required (or --resume <session id>)")
			}
			side, perr := debate.ParseSide(sideFlag)
			if perr != nil {
				return perr
			}
			s, err = coach.NewSession(ctx, motion, side)
		}
		if err != nil {
			return err
		}

		return runSpar(ctx, coach, s, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	sparCmd.Flags().StringP("motion", "m", "", "Motion to debate")
	sparCmd.Flags().StringP("side", "s", "proposition", "Your side: proposition or opposition")
	sparCmd.Flags().String("resume", "", "Resume a stored session by ID")
	sparCmd.Flags().String("model", "", "Model override for the coach")
}

// runSpar reads arguments and commands from in until EOF or /quit.
func runSpar(ctx context.Context, coach *debate.Coach, s *debate.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, theme.Motion.Render(s.Motion))
	fmt.Fprintf(out, "%s You argue the %s. Session %s\n\n", theme.Dim.Render("›"), s.Side, theme.Dim.Render(s.ID))

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, theme.User.Render("you› "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())

		var err error
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/score":
			err = score(ctx, coach, s, out)
		case strings.HasPrefix(line, "/hint"):
			err = hint(ctx, coach, s, strings.TrimSpace(strings.TrimPrefix(line, "/hint")), out)
		default:
			err = rebut(ctx, coach, s, line, out)
		}

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, theme.Failure.Render("error: ")+err.Error())
		}
	}
}

func rebut(ctx context.Context, coach *debate.Coach, s *debate.Session, argument string, out io.Writer) error {
	if err := coach.AddArgument(ctx, s, argument); err != nil {
		return err
	}

	fmt.Fprint(out, theme.Coach.Render("coach› "))
	// Only the claim streams; the preview can shift while markup is being
	// stripped, so print only what extends the text already shown.
	shown := ""
	r, err := coach.Rebut(ctx, s, func(text string) {
		claim := debate.PreviewField(text, "claim")
		if len(claim) > len(shown) && strings.HasPrefix(claim, shown) {
			fmt.Fprint(out, theme.Body.Render(claim[len(shown):]))
			shown = claim
		}
	})
	if err != nil {
		fmt.Fprintln(out)
		return err
	}
	if rest, ok := strings.CutPrefix(r.Claim, shown); ok {
		fmt.Fprint(out, theme.Body.Render(rest))
	} else {
		fmt.Fprint(out, "\n"+theme.Body.Render(r.Claim))
	}
	fmt.Fprintln(out)

	if r.Reasoning != "" {
		fmt.Fprintln(out, theme.Body.Render(r.Reasoning))
	}
	fmt.Fprint(out, theme.Bullets(r.Evidence))
	if r.Question != "" {
		fmt.Fprintln(out, theme.Coach.Render("? ")+r.Question)
	}
	fmt.Fprintln(out)
	return nil
}

func score(ctx context.Context, coach *debate.Coach, s *debate.Session, out io.Writer) error {
	fb, err := coach.Evaluate(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, theme.Title.Render("Score ")+theme.Score(fb.Score))
	if len(fb.Strengths) > 0 {
		fmt.Fprintln(out, theme.Dim.Render("Strengths"))
		fmt.Fprint(out, theme.Bullets(fb.Strengths))
	}
	if len(fb.Weaknesses) > 0 {
		fmt.Fprintln(out, theme.Dim.Render("Weaknesses"))
		fmt.Fprint(out, theme.Bullets(fb.Weaknesses))
	}
	if fb.Advice != "" {
		fmt.Fprintln(out, theme.Hint.Render(fb.Advice))
	}
	fmt.Fprintln(out)
	return nil
}

func hint(ctx context.Context, coach *debate.Coach, s *debate.Session, draft string, out io.Writer) error {
	if draft == "" {
		return errors.New("usage: /hint <draft argument>")
	}
	h, err := coach.Hint(ctx, s, draft)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, theme.Hint.Render("Try: ")+h.Suggestion)
	fmt.Fprintln(out, theme.Hint.Render("Expect: ")+h.Counterpoint)
	fmt.Fprintln(out)
	return nil
}
