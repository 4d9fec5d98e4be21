// Package nexia is the Composition Root for the Nexia note graph.
//
// It connects the core domain (notes, the notebook and its backlink index)
// with the storage adapters using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// A notebook is a directed graph of notes. Every note keeps its outgoing
// links; the notebook keeps the reverse index so backlinks are always
// answered from memory and always agree with the links.
//
// Features:
//
//   - **Backlinks**: the reverse index is maintained on every mutation.
//   - **Pluggable Storage**: JSON or YAML files, BadgerDB or SQLite via `core.Storage`.
//   - **Versioning**: optional git commit after every save.
//   - **Watching**: external edits of a notebook file are reported as events.
//   - **Unlinked Mentions**: notes whose titles appear in a note's content.
//   - **Typed Attributes**: generic wrapper (`NewTypedService[T]`) for struct access.
//
// Usage:
//
//	svc, err := nexia.New("./journal.nexia.json",
//		nexia.WithAutoInit(true),
//		nexia.WithLogger(logger),
//	)
//
//	a, _ := svc.CreateNote(ctx, "Ideas")
//	b, _ := svc.CreateNote(ctx, "Projects")
//	_ = svc.LinkNotes(ctx, a.ID.String(), b.ID.String())
//	back, _ := svc.Backlinks(ctx, b.ID.String()) // [Ideas]
//	_ = svc.Save(ctx, "")
package nexia
