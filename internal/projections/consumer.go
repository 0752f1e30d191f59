package projections

import (
	"context"
	"encoding/json"
	"errors"

	"pcadvisor/internal/kstream"
	"pcadvisor/internal/model"
)

// Projector applies one accepted part to a read model.
type Projector interface {
	Apply(ctx context.Context, evt model.PartAccepted) error
}

// Fanout decodes a catalog.parts.accepted message once and applies it to
// every projector. One projector failing does not stop the others.
func Fanout(ps ...Projector) func(context.Context, []byte) error {
	return func(ctx context.Context, value []byte) error {
		var evt model.PartAccepted
		if err := json.Unmarshal(value, &evt); err != nil {
			return err
		}
		var errs []error
		for _, p := range ps {
			if err := p.Apply(ctx, evt); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// ConsumeAccepted feeds catalog.parts.accepted into the projectors until
// ctx ends.
func ConsumeAccepted(ctx context.Context, r kstream.MessageReader, ps ...Projector) error {
	defer r.Close()
	return kstream.Run(ctx, r, "projector", Fanout(ps...))
}
