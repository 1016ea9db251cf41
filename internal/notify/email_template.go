package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>MikeCast – {{.Digest.Date.Display}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #1a1a2e;
      font-family: "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #e0e0e0;
      line-height: 1.5;
    }

    .container {
      max-width: 700px;
      margin: 0 auto;
    }

    .header {
      text-align: center;
      padding: 20px 0;
      border-bottom: 2px solid #4fc3f7;
    }

    .header h1 {
      color: #4fc3f7;
      margin: 0;
      font-size: 2em;
    }

    .header p {
      color: #888888;
      margin: 4px 0 0;
    }

    h2 {
      color: #4fc3f7;
      border-bottom: 1px solid #444444;
      padding-bottom: 6px;
    }

    h2.picks {
      color: #ffb74d;
    }

    li {
      margin-bottom: 10px;
    }

    .summary,
    .trends li,
    .watch li {
      color: #cccccc;
    }

    .badge {
      background: #ff9800;
      color: #000000;
      padding: 1px 6px;
      border-radius: 3px;
      font-size: 0.8em;
      margin-right: 4px;
    }

    .story {
      color: #81d4fa;
      text-decoration: none;
      font-weight: 600;
    }

    .pick {
      color: #ffcc80;
      text-decoration: none;
      font-weight: 600;
    }

    .source {
      color: #888888;
      font-size: 0.85em;
    }

    .desc {
      color: #bbbbbb;
      font-size: 0.9em;
    }

    .footer {
      text-align: center;
      padding: 20px 0;
      border-top: 1px solid #444444;
      margin-top: 30px;
      color: #666666;
      font-size: 0.85em;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>🎙️ MikeCast</h1>
      <p>Daily Briefing – {{.Digest.Date.Display}}</p>
    </div>

    <h2>Executive Summary</h2>
    <p class="summary">{{.Insights.ExecutiveSummary}}</p>

    {{range .Sections}}
    <h2>{{.Category}}</h2>
    <ul>
      {{range .Articles}}
      <li>
        {{if .IsUpdated}}<span class="badge">Updated</span>{{end}}
        <a href="{{if .URL}}{{.URL}}{{else}}#{{end}}" class="story">{{.DisplayTitle}}</a>
        {{if .Source}}<span class="source">– {{.Source}}</span>{{end}}
        {{if .Description}}<br><span class="desc">{{trunc .Description 200}}</span>{{end}}
      </li>
      {{end}}
    </ul>
    {{end}}

    {{if .Digest.Picks}}
    <h2 class="picks">🎯 Mike's Picks</h2>
    <ul>
      {{range .Digest.Picks}}
      <li>
        {{if .URL}}<a href="{{.URL}}" class="pick">{{.Title}}</a>{{else}}<strong class="pick">{{.Title}}</strong>{{end}}
        {{if .Summary}}<br><span class="desc">{{trunc .Summary 300}}</span>{{end}}
      </li>
      {{end}}
    </ul>
    {{end}}

    {{if .Insights.KeyTrends}}
    <h2>Key Trends &amp; Insights</h2>
    <ul class="trends">
      {{range .Insights.KeyTrends}}
      <li>{{.}}</li>
      {{end}}
    </ul>
    {{end}}

    {{if .Insights.WhatToWatch}}
    <h2>What to Watch</h2>
    <ul class="watch">
      {{range .Insights.WhatToWatch}}
      <li>{{.}}</li>
      {{end}}
    </ul>
    {{end}}

    <div class="footer">
      MikeCast Daily Briefing • Generated {{.Digest.Date.Display}}<br>
      Powered by NYT API, Google News &amp; OpenAI
    </div>
  </div>
</body>
</html>`
