// Package session runs one interactive target tool as a child process and
// exposes its standard streams as a byte-oriented conversation channel.
//
// Two transports implement [Session]:
//
//   - [TransportPipe]: stdin is a pipe, stdout and stderr share a second pipe.
//     Termination is requested by writing a sentinel line.
//   - [TransportPTY]: all three standard streams are attached to the slave end
//     of a pseudoterminal so the tool behaves as if a human were typing.
//     Termination is requested with SIGINT.
//
// Usage:
//
//	sess, err := session.Open(ctx, session.Spec{
//		Command:   "php",
//		Args:      []string{"climerger.php"},
//		Transport: session.TransportPipe,
//		Sentinel:  "-1",
//	})
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
package session
