// Package treeguides draws indent guides for nested constructor
// expressions. An Analyzer turns source text into an outline, a Registry
// hands the newest outline of every open file to its listeners, and a Pass
// rebuilds the guide descriptors of one document and reconciles them with
// the guides already on screen.
//
// A Pass and the document it draws on belong to a single owner goroutine.
// Outlines produced on analysis workers must be handed to that goroutine
// before they are applied.
package treeguides
