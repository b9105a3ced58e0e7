/*
Package session implements session management and persistence orchestration.

A session is one state tree of one area, identified by an ID and kept in a
ports.TreeStore. The Manager serializes every read-modify-write on a
session, so reducer applications on the same tree never interleave, while
distinct sessions proceed in parallel. With a ports.DistributedLocker the
same guarantee holds across replicas sharing a store.
*/
package session
