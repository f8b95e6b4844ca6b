/*
Package types defines netscan's information model. Which is rather simple and
mainly revolves around [ProbedAddress] and the probe [Outcome] of addresses, as
well as the [NamedAddress] of a responsive host.

# Outcomes versus Failure Kinds

The final scan report only knows two outcomes for a probed address:
[Responsive] and [Unresponsive]. However, an address can be unresponsive for
quite different reasons: the host might be down, an intermediate router might
have told us that the destination is unreachable, or we might not even have
been allowed to open an ICMP socket in the first place. The latter is not about
the scanned hosts at all, but about a misconfigured scanner.

So an unresponsive [ProbedAddress] keeps its failure reason, which can be
classified into a [FailureKind] using [Classify]. Probers wrap their errors
into [ProbeError] where they know better than the classification heuristics.

# Immutability

Probed addresses are passed around through channels between concurrently
running probe tasks and the single aggregating consumer. [ProbedAddress] thus
is a plain value type with only getters for its error details; updates derive
new values using [ProbedAddress.WithOutcome].
*/
package types
