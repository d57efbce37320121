package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

type turn struct {
	at       time.Time
	question string
	answer   string
}

func (c *cli) askCmd() *cobra.Command {
	var patientID int64
	cmd := &cobra.Command{
		Use:   "ask MESSAGE",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().Int64Var(&patientID, "patient", 0, "patient id to use as context")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, args []string) error {
		pctx, err := c.patientContext(cmd.Context(), patientID)
		if err != nil {
			return err
		}
		reply, err := c.app.Chat.Ask(cmd.Context(), strings.Join(args, " "), pctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	})
	return cmd
}

func (c *cli) chatCmd() *cobra.Command {
	var patientID int64
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant interactively",
		Long: `Reads one message per line from stdin and prints the assistant's reply.
Type /history to print the conversation so far and /quit to leave.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().Int64Var(&patientID, "patient", 0, "patient id to use as context")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		pctx, err := c.patientContext(cmd.Context(), patientID)
		if err != nil {
			return err
		}
		return c.converse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), pctx)
	})
	return cmd
}

// converse runs the read-ask-print loop. A failed exchange is reported and
// the loop continues; the transcript only records answered questions.
func (c *cli) converse(ctx context.Context, in io.Reader, out io.Writer, patientContext string) error {
	var transcript []turn
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit", "/exit":
			return nil
		case "/history":
			for _, t := range transcript {
				fmt.Fprintf(out, "[%s] you: %s\n[%s] assistant: %s\n",
					t.at.Format(time.Kitchen), t.question, t.at.Format(time.Kitchen), t.answer)
			}
		default:
			reply, err := c.app.Chat.Ask(ctx, line, patientContext)
			if err != nil {
				fmt.Fprintf(out, "! %s\n", domain.Reason(err))
				if err := c.app.Session.RequireAuthenticated(); err != nil {
					return err
				}
				break
			}
			transcript = append(transcript, turn{at: time.Now(), question: line, answer: reply})
			fmt.Fprintln(out, reply)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// patientContext summarises a patient record for the assistant. Zero id
// means no context.
func (c *cli) patientContext(ctx context.Context, id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	p, err := c.app.Patients.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load patient %d: %w", id, err)
	}

	parts := []string{fmt.Sprintf("Patient: %s", p.FullName())}
	add := func(label string, v *string) {
		if v != nil && *v != "" {
			parts = append(parts, label+": "+*v)
		}
	}
	add("Date of birth", p.DateOfBirth)
	add("Allergies", p.Allergies)
	add("Medical history", p.MedicalHistory)
	add("Dental history", p.DentalHistory)
	return strings.Join(parts, "; "), nil
}
