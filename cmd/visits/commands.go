package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lessonvisit/internal/core"
	"lessonvisit/internal/rulebook"
	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"
)

type draftFlags struct {
	id        string
	subject   string
	year      string
	topic     string
	date      string
	examiners string
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "check FIELD VALUE",
		Short: "Check one field value against the saved visits",
		Long: `Check one field value against the saved visits.

FIELD is year, topic, date or examiners (or school_year, lesson_topic,
examinants). The record is an existing visit (--id) or a draft built from
--subject and the other field flags. Exits with status 2 when the value is
refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, flags, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.id, "id", "", "check against a saved visit")
	cmd.Flags().StringVar(&flags.subject, "subject", string(schema.SubjectHistory), "subject of the draft visit")
	cmd.Flags().StringVar(&flags.year, "year", "", "school year of the draft visit")
	cmd.Flags().StringVar(&flags.topic, "topic", "", "lesson topic of the draft visit")
	cmd.Flags().StringVar(&flags.date, "date", "", "date of the draft visit (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.examiners, "examiners", "", "comma-separated examiner roles of the draft visit")
	return cmd
}

func runCheck(cmd *cobra.Command, root *rootFlags, flags *draftFlags, name, arg string) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.shutdown()

	editor, err := a.editor()
	if err != nil {
		return err
	}

	field, value, err := core.ParseField(name, arg, time.Local)
	if err != nil {
		return err
	}

	var rec schema.AttendanceRecord
	if flags.id != "" {
		session, err := editor.Open(cmd.Context(), flags.id)
		if err != nil {
			return err
		}
		rec = session.Draft
	} else {
		rec, err = buildDraft(flags)
		if err != nil {
			return err
		}
	}

	msg, err := editor.Check(cmd.Context(), rec, field, value)
	var unsupported *schema.UnsupportedFieldError
	if errors.As(err, &unsupported) {
		return fmt.Errorf("%s cannot be checked for %s visits", field, unsupported.Subject)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderVerdict(field, msg))
	if msg != "" {
		return errRejected
	}
	return nil
}

// buildDraft assembles an unsaved record from the draft flags without
// validating it.
func buildDraft(flags *draftFlags) (schema.AttendanceRecord, error) {
	rec := schema.AttendanceRecord{
		Subject:     schema.SubjectKey(flags.subject),
		SchoolYear:  schema.SchoolYear(flags.year),
		LessonTopic: schema.LessonTopic(flags.topic),
	}
	if flags.date != "" {
		d, err := parseDate(flags.date)
		if err != nil {
			return rec, err
		}
		rec.Date = d
	}
	if flags.examiners != "" {
		_, roles, err := core.ParseField(string(validation.FieldExaminants), flags.examiners, time.Local)
		if err != nil {
			return rec, err
		}
		rec = rec.WithExaminers(roles.([]schema.ExaminerRole))
	}
	return rec, nil
}

func newEditCmd(root *rootFlags) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "edit [ID]",
		Short: "Create or edit a visit interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(root)
			if err != nil {
				return err
			}
			defer a.shutdown()

			editor, err := a.editor()
			if err != nil {
				return err
			}

			var session *core.Session
			if len(args) == 1 {
				session, err = editor.Open(cmd.Context(), args[0])
			} else {
				session, err = editor.New(cmd.Context(), schema.SubjectKey(subject))
			}
			if err != nil {
				return err
			}

			cli := core.NewCLISession(editor, session, a.lock("edit"), cmd.InOrStdin(), cmd.OutOrStdout())
			if !isTerminal(cmd.InOrStdin()) {
				cli.Prompt = ""
			}
			return cli.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&subject, "subject", string(schema.SubjectHistory), "subject of a new visit")
	return cmd
}

func newListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved visits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(root)
			if err != nil {
				return err
			}
			defer a.shutdown()

			editor, err := a.editor()
			if err != nil {
				return err
			}
			records, err := editor.Records(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRecords(records, a.rules))
			return nil
		},
	}
}

func newDeleteCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(root)
			if err != nil {
				return err
			}
			defer a.shutdown()

			editor, err := a.editor()
			if err != nil {
				return err
			}
			return a.withLock("delete", func() error {
				if err := editor.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
				return nil
			})
		},
	}
}

func newRulebookCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rulebook",
		Short: "Print the effective rulebook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			rules, err := rulebook.Load(cfg.RulebookPath)
			if err != nil {
				return fmt.Errorf("failed to load rulebook: %w", err)
			}
			data, err := rulebook.Marshal(rules)
			if err != nil {
				return err
			}
			source := cfg.RulebookPath
			if source == "" {
				source = "built-in"
			}
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("# rulebook: "+source))
			fmt.Fprint(cmd.OutOrStdout(), strings.TrimLeft(string(data), "\n"))
			return nil
		},
	}
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
