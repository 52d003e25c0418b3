package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
)

// resolveCropID resolves a crop identifier which can be:
//   - A crop name (case-insensitive)
//   - A full UUID
//   - An unambiguous UUID prefix
func resolveCropID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("crop is required")
	}

	c, err := app.Crops.GetByName(ctx, input)
	if err == nil {
		return c.ID, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return "", err
	}

	crops, err := app.Crops.List(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(crops))
	for i, c := range crops {
		ids[i] = c.ID
	}
	return matchID("crop", input, ids)
}

// resolveCropIDs resolves a list of crop names or IDs, keeping their order.
func resolveCropIDs(ctx context.Context, app *App, inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := resolveCropID(ctx, app, in)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// resolveRotationID resolves a rotation name, full UUID or UUID prefix.
// Archived rotations are included so they can still be shown or removed.
func resolveRotationID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("rotation is required")
	}

	r, err := app.Rotations.GetByName(ctx, input)
	if err == nil {
		return r.ID, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return "", err
	}

	rotations, err := app.Rotations.List(ctx, true)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(rotations))
	for i, r := range rotations {
		ids[i] = r.ID
	}
	return matchID("rotation", input, ids)
}

func matchID(entity, input string, ids []string) (string, error) {
	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &domain.NotFoundError{Entity: entity, Key: input}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", entity, input, len(matches))
	}
}

// confirm asks a yes/no question on in and reports whether the answer
// starts with y.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(answer, "y")
}
