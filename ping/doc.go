/*
Package ping implements concurrent ICMP echo probing of IPv4 addresses.

The actual sending of echo requests and waiting for their replies is left to a
[Prober]. This package brings along [GoPinger], a Prober using [go-ping/ping];
the separate icmpecho package brings another Prober honouring all packet
[Options].

[Pinger] objects support concurrent probing jobs with maximum goroutine
limits. Individual probe verdicts are streamed as they are decided, to a
channel returned when creating a new Pinger object. Here, a
[types.ProbedAddress] consists of an IP address as well as the [types.Outcome],
notably [types.Responsive] and [types.Unresponsive], but also [types.Probing].

	         +---+
	addr --->| P +-->ch ProbedAddress
	         +---+

⚠ Please note that a [Pinger] initially emits any newly submitted address
before it undergoes probing (with its outcome set to “probing”), as well as
later the final verdict. Interactive clients thus can show all enqueued probes
early.

If needed, a Pinger can read the addresses it has to probe from an input
channel until this input channel is closed.

	          +---+
	ch addr-->| P +-->ch ProbedAddress
	          +---+

# Failure Isolation

Each probe runs in its own task with its own timeout clock, starting when the
task gets dispatched to a worker. A prober that fails, panics, or doesn't
return in time never affects other probes: its address simply gets an
unresponsive verdict, carrying a [types.ProbeError] for diagnostics.

# Acknowledgements

Under its hood, [Pinger] leverages [gammazero/workerpool] as the limiting
goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
