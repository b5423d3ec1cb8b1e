// Package tmpl compiles and renders htmpl templates.
//
// A template is literal text interleaved with directives enclosed in
// double braces. Compilation turns the text into an immutable tree of
// [Node] values; rendering walks that tree against a [Context] and
// concatenates the output.
//
// # Substitutions
//
// A directive that starts with '$' is a variable reference. Path segments
// are separated by "->" and any segment may embed a parenthesized reference
// whose value becomes part of the key:
//
//	{{$site->title}}
//	{{$nums->($data->key)}}
//
// A directive of the form eval(...) is an expression. References inside it
// are resolved first and the expression is evaluated by expr-lang:
//
//	{{eval($price * $qty)}}
//
// Missing variables render as the empty string.
//
// # Directives
//
// Block directives own a body closed by {{end}} and may contain one
// {{else}}:
//
//	{{foreach: var=item, source=$list}} ... {{else}} ... {{end}}
//	{{if: condition=$flag, as=value}} ... {{else}} ... {{end}}
//	{{with_local_resource: glob=img/*.png, as=file, all_files=true}} ... {{end}}
//
// Leaf directives render in place:
//
//	{{template: file=partials/nav.htmpl, active=home}}
//	{{static_resource: file=style.css}}
//
// {{comment: ...}} is dropped, and {{blockcomment}} ... {{end}} drops
// everything up to its matching end, including nested blocks.
//
// # Engines
//
// An [Engine] supplies included templates and resource globs through an
// [fsys.FS] and caches compiled templates. [Compile] and
// [Template.Render] use a default Engine rooted at the working directory.
package tmpl
