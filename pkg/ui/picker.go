package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// ErrNoTrees is returned when there is nothing to pick from.
var ErrNoTrees = errors.New("no trees loaded")

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form, falling back to accessible mode without a TTY.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// pickerOptions lists the trees for the picker, valued by index.
func pickerOptions(specs []model.TreeSpec) []huh.Option[int] {
	opts := make([]huh.Option[int], len(specs))
	for i, s := range specs {
		label := s.Label()
		if s.Data != nil {
			label = fmt.Sprintf("%s  · %d nodes", label, s.Data.Count())
		}
		opts[i] = huh.NewOption(label, i)
	}
	return opts
}

// PickTree asks which tree to open first. With a single tree it returns 0
// without prompting.
func PickTree(specs []model.TreeSpec) (int, error) {
	switch len(specs) {
	case 0:
		return 0, ErrNoTrees
	case 1:
		return 0, nil
	}
	choice := 0
	form := newForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which decision tree?").
				Options(pickerOptions(specs)...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return 0, err
	}
	return choice, nil
}
