package preview

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} documentation</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: 0.35rem 0.75rem 0.35rem 0; border-bottom: 1px solid #ddd; }
.updated { color: #777; white-space: nowrap; }
</style>
</head>
<body>
<h1>{{.Title}} documentation</h1>
<table>
<tr><th>Document</th><th>Updated</th></tr>
{{range .Entries}}<tr><td><a href="/doc/{{.Identity}}">{{.Title}}</a></td><td class="updated">{{.Updated}}</td></tr>
{{end}}</table>
</body>
</html>
`))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.55; }
pre { background: #f6f8fa; padding: 0.75rem; overflow-x: auto; border-radius: 4px; }
code { font-family: ui-monospace, monospace; font-size: 0.92em; }
a.back { color: #777; text-decoration: none; }
</style>
</head>
<body>
<p><a class="back" href="/">&larr; index</a></p>
{{.Body}}
</body>
</html>
`))
