package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

// patientFlags maps command-line flags to patient fields. Only flags the
// user actually set end up in the payload.
var patientFlags = []struct {
	name  string
	usage string
	field func(*domain.PatientFields) **string
}{
	{"first-name", "first name", func(f *domain.PatientFields) **string { return &f.FirstName }},
	{"last-name", "last name", func(f *domain.PatientFields) **string { return &f.LastName }},
	{"email", "email address", func(f *domain.PatientFields) **string { return &f.Email }},
	{"phone", "phone number", func(f *domain.PatientFields) **string { return &f.Phone }},
	{"dob", "date of birth (YYYY-MM-DD)", func(f *domain.PatientFields) **string { return &f.DateOfBirth }},
	{"address", "postal address", func(f *domain.PatientFields) **string { return &f.Address }},
	{"medical-history", "medical history notes", func(f *domain.PatientFields) **string { return &f.MedicalHistory }},
	{"dental-history", "dental history notes", func(f *domain.PatientFields) **string { return &f.DentalHistory }},
	{"allergies", "known allergies", func(f *domain.PatientFields) **string { return &f.Allergies }},
	{"emergency-contact", "emergency contact", func(f *domain.PatientFields) **string { return &f.EmergencyContact }},
}

func addPatientFlags(fs *pflag.FlagSet) {
	for _, pf := range patientFlags {
		fs.String(pf.name, "", pf.usage)
	}
}

func patientFieldsFromFlags(fs *pflag.FlagSet) domain.PatientFields {
	var fields domain.PatientFields
	for _, pf := range patientFlags {
		if !fs.Changed(pf.name) {
			continue
		}
		v, _ := fs.GetString(pf.name)
		*pf.field(&fields) = domain.String(v)
	}
	return fields
}

func (c *cli) patientsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"patient"},
		Short:   "Manage patient records",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print records as JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			patients, err := c.app.Patients.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), patients)
			}
			return writePatientTable(cmd.OutOrStdout(), patients)
		}),
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.app.Patients.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			writePatient(cmd.OutOrStdout(), p)
			return nil
		}),
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a patient",
		Args:  cobra.NoArgs,
	}
	addPatientFlags(create.Flags())
	_ = create.MarkFlagRequired("first-name")
	_ = create.MarkFlagRequired("last-name")
	create.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		p, err := c.app.Patients.Create(cmd.Context(), patientFieldsFromFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created patient %d (%s)\n", p.ID, p.FullName())
		return nil
	})

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Update the given fields of a patient",
		Args:  cobra.ExactArgs(1),
	}
	addPatientFlags(update.Flags())
	update.RunE = c.withApp(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := c.app.Patients.Update(cmd.Context(), id, patientFieldsFromFlags(cmd.Flags()))
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated patient %d\n", p.ID)
		return nil
	})

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a patient",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Patients.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted patient %d\n", id)
			return nil
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid patient id %q", s)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePatientTable(w io.Writer, patients []domain.Patient) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tDOB")
	for _, p := range patients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.FullName(),
			domain.Deref(p.Email), domain.Deref(p.Phone), domain.Deref(p.DateOfBirth))
	}
	return tw.Flush()
}

func writePatient(w io.Writer, p domain.Patient) {
	row := func(label string, v *string) {
		if v != nil && *v != "" {
			fmt.Fprintf(w, "%-18s %s\n", label+":", *v)
		}
	}
	fmt.Fprintf(w, "%-18s %d\n", "ID:", p.ID)
	fmt.Fprintf(w, "%-18s %s\n", "Name:", p.FullName())
	row("Email", p.Email)
	row("Phone", p.Phone)
	row("Date of birth", p.DateOfBirth)
	row("Address", p.Address)
	row("Medical history", p.MedicalHistory)
	row("Dental history", p.DentalHistory)
	row("Allergies", p.Allergies)
	row("Emergency contact", p.EmergencyContact)
}
