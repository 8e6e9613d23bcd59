package report

// PageTemplate is the HTML template for the standalone chart page.
// It is embedded as a Go constant.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
{{.Stylesheet}}
</style>
</head>
<body>
<div class="container">
  <div class="row">
    <div class="col-xs-12">
      <h1>{{.Title}}</h1>
      {{- if .Subtitle}}
      <p class="muted">{{.Subtitle}}</p>
      {{- end}}
    </div>
  </div>
  <div class="row">
    <div class="col-xs-12 col-md-12">
      <div id="scatter">{{.SVG}}</div>
    </div>
  </div>
  {{- if .Footer}}
  <p class="muted">{{.Footer}}</p>
  {{- end}}
</div>
<script type="application/json" id="tooltip-data">{{.Tooltips}}</script>
<script>
{{.Script}}
</script>
</body>
</html>
`
