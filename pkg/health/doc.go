/*
Package health implements the three container health check mechanisms a
Pod's containers can declare: HTTP, TCP, and Exec. FromSpec builds a
Checker from a types.HealthCheck; Status tracks consecutive successes
and failures over time so a single flaky check doesn't flip a
container's health back and forth.

Reddwarf's zones run as OS-level processes on the same host as the
control plane rather than behind a virtual network, so a container's
HealthCheck.Endpoint is ordinarily a localhost address ("localhost:5432"
or "http://localhost:8080/health") rather than a pod IP.

pkg/controller polls each Running Pod's declared checks on a ticker and
transitions the Pod to Failed once a container's consecutive-failure
count reaches its configured Retries.
*/
package health
