// Package markup reads rendered issue reports back into a structured form.
//
// The reader understands the document produced by the report package: the
// title, the top-level heading, the header cells of the issue table and one
// row per issue with its cell texts and the severity label color.
//
// It is used by the builtin PDF exporter, which lays out the table itself,
// and by tests asserting structural properties of the rendered markup.
package markup
