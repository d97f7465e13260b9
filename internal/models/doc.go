// Package models defines the core domain models for classroll.
//
// # Models
//
//   - Group: a class with a fixed seat capacity
//   - Member: a student who is enrolled into at most one Group at a time
//
// Relationships are expressed by ID (Member.GroupID) rather than pointers, so
// models can be passed between the storage and service layers without
// loading whole object graphs.
//
// # Capacity
//
// A Group's Capacity bounds the number of Members that reference it with
// StatusActive. The bound is checked by the enrollment package whenever a
// membership is created or changed; lowering a capacity never evicts anyone.
package models
