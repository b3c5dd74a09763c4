// Package merger drives an interactive merge tool through a bulk list of
// identifier pairs.
//
// A [Driver] owns exactly one [session.Session]. For every candidate pair it
// screens the pair (digits only, not a self merge, not seen before in this
// run), then plays one protocol turn:
//
//	AwaitingFromIdAck -> AwaitingToIdAck -> AwaitingResult -> Merged | Failed
//
// The fromid is written, the driver waits for the tool to ask for the toid,
// the toid is written, and the tool output is scanned until the success line
//
//	From <fromid> to <toid>: Success; Log id: <n>
//
// or a configured error marker appears. Output is accumulated across reads and
// matched against the whole unconsumed buffer, so markers split over several
// reads are still found.
//
// Invariants:
//   - toid is never written before the tool acknowledged the fromid.
//   - Skipped pairs never touch the session.
//   - Turns run one at a time; nothing is pipelined.
//   - Termination is attempted exactly once per session.
//
// Usage:
//
//	d, err := merger.New(cfg, session.NewLauncher(spec), merger.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	summary, err := d.Run(ctx, source)
package merger
