/*
Package ports defines the driven ports (interfaces) for statetree.

These interfaces decouple session handling from external implementations,
allowing trees to be kept in memory, on disk or in Redis, and sessions to
be coordinated across replicas.

# Key Interfaces

  - TreeStore: Responsible for persisting and loading session Trees.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
