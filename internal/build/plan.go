package build

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/reactbundle/internal/entrypoint"
)

// DuplicatePolicy decides what happens when two entry points map to one artifact
type DuplicatePolicy string

const (
	// DuplicatePolicyError fails the build before anything is bundled
	DuplicatePolicyError DuplicatePolicy = "error"
	// DuplicatePolicyLastWriteWins keeps the entry point found last in walk order
	DuplicatePolicyLastWriteWins DuplicatePolicy = "last-write-wins"
)

// Entry is one entry point and the artifact it is bundled into
type Entry struct {
	Match  entrypoint.Match
	Output string
}

// Plan lists the entry points of one run in walk order
type Plan struct {
	Entries []Entry
	// Overridden holds entry points dropped by the last-write-wins policy
	Overridden []Entry
}

// Outputs returns the artifact path of every planned entry
func (p *Plan) Outputs() []string {
	outputs := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		outputs[i] = e.Output
	}
	return outputs
}

// Plan walks every source root, recognises entry points and maps them to artifacts.
// Nothing is written.
func (o *Orchestrator) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{}
	byOutput := make(map[string]int)

	for _, root := range o.roots {
		for candidate, err := range o.walker.Walk(root) {
			if err != nil {
				return nil, &FilesystemError{Op: "walk", Path: root, Err: err}
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			match, ok := entrypoint.MatchFile(root, candidate.Dir, candidate.Path, candidate.Name)
			if !ok {
				continue
			}
			o.metrics.RecordEntryPoint(match.Kind.String())

			output, err := o.mapper.Path(match)
			if err != nil {
				return nil, err
			}
			entry := Entry{Match: match, Output: output}

			i, dup := byOutput[output]
			if !dup {
				byOutput[output] = len(plan.Entries)
				plan.Entries = append(plan.Entries, entry)
				continue
			}

			previous := plan.Entries[i]
			if o.policy != DuplicatePolicyLastWriteWins {
				return nil, &DuplicateEntryNameError{
					Output: output,
					First:  previous.Match.Source,
					Second: match.Source,
				}
			}

			log.Warn().
				Str("output", output).
				Str("dropped", previous.Match.Source).
				Str("kept", match.Source).
				Msg("Duplicate entry point output, last one wins")
			plan.Overridden = append(plan.Overridden, previous)
			plan.Entries[i] = entry
		}
	}

	return plan, nil
}
