/*
Package statetree tracks the lifecycle of many independent, concurrently
issued asynchronous operations against a remote API, and exposes their
status and last known result through a single immutable state tree.

# Concept

Every tracked operation owns a slot in the tree. A slot holds its data, a
status (init, loading, success or error) and the last failure. Request and
response actions move slots through that lifecycle according to a rule
table, one table per area of the application. Data is monotonic: failures
and refreshes never discard the last good value; only a reset or an
explicit placeholder replaces it.

Reducing never mutates a tree and never fails. Failures are data.

# Usage

	engine, err := statetree.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	engine.Start(ctx, cloud.Name, "session-1")

	res, err := engine.Dispatch(ctx, cloud.Name, "session-1",
		domain.NewAction(cloud.GetRegionList, nil),
		domain.Respond(cloud.GetRegionListResponse, 200, regions),
	)

# Persistence

Sessions live in a ports.TreeStore: in memory by default, or on disk, or in
redis. Store middleware masks sensitive fields and encrypts trees at rest.
Dispatch on one session is serialized; distinct sessions run in parallel,
and a distributed locker extends that guarantee across processes.
*/
package statetree
