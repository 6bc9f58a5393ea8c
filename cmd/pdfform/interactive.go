package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/a3tai/pdfform/internal/pdf"
	"github.com/a3tai/pdfform/internal/pdf/appearance"
	"github.com/a3tai/pdfform/internal/pdf/form"
)

// skipOption leaves a choice field untouched.
const skipOption = "(leave unchanged)"

// asker runs one prompt and stores the answer in response.
type asker interface {
	Ask(p survey.Prompt, response any) error
}

// surveyAsker prompts on the terminal. Prompts go to stderr so a filled PDF
// can be written to stdout.
type surveyAsker struct{}

func (surveyAsker) Ask(p survey.Prompt, response any) error {
	return survey.AskOne(p, response, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
}

// promptValues asks for a value for every writable field of the template
// and adds the answers to req.Data. Empty answers leave a field unchanged.
func promptValues(svc *pdf.Service, req pdf.PDFFillFormRequest, a asker) error {
	res, err := svc.InspectForm(pdf.PDFInspectFormRequest{Path: req.Path})
	if err != nil {
		return err
	}
	for _, info := range res.Fields {
		if info.ReadOnly {
			continue
		}
		in, ok, err := askField(a, info)
		if err != nil {
			return fmt.Errorf("%s: %w", info.QualifiedName, err)
		}
		if ok {
			req.Data.Values[info.QualifiedName] = in
		}
	}
	return nil
}

// askField prompts for one field. ok is false when the field is skipped.
func askField(a asker, info form.Info) (in appearance.Input, ok bool, err error) {
	p := promptFor(info)
	switch p.(type) {
	case nil:
		return in, false, nil

	case *survey.Confirm:
		var checked bool
		if err := a.Ask(p, &checked); err != nil {
			return in, false, err
		}
		return appearance.BoolInput(checked), true, nil

	case *survey.MultiSelect:
		var items []string
		if err := a.Ask(p, &items); err != nil {
			return in, false, err
		}
		if len(items) == 0 {
			return in, false, nil
		}
		return appearance.ListInput(items), true, nil

	default:
		var s string
		if err := a.Ask(p, &s); err != nil {
			return in, false, err
		}
		if s == "" || s == skipOption {
			return in, false, nil
		}
		return appearance.TextInput(s), true, nil
	}
}

// promptFor picks the survey prompt for a field's input type; nil means the
// field takes no input.
func promptFor(info form.Info) survey.Prompt {
	msg := info.Label
	if msg == "" {
		msg = info.QualifiedName
	}
	if info.Required {
		msg += " *"
	}
	current, _ := info.Value.(string)

	switch info.InputType {
	case form.InputText:
		return &survey.Input{Message: msg, Default: current}
	case form.InputTextarea:
		return &survey.Multiline{Message: msg, Default: current}
	case form.InputPassword:
		return &survey.Password{Message: msg}
	case form.InputCheckbox:
		return &survey.Confirm{Message: msg, Default: current != "" && current != "/"+form.OffState}
	case form.InputRadio, form.InputSelect, form.InputCombo:
		if len(info.Options) == 0 {
			return nil
		}
		if list, ok := info.Value.([]string); ok {
			return &survey.MultiSelect{Message: msg, Options: info.Options, Default: list}
		}
		return &survey.Select{Message: msg, Options: append([]string{skipOption}, info.Options...)}
	case form.InputSignature:
		return &survey.Input{Message: msg, Help: "path to a signature image, empty to skip"}
	}
	return nil
}
