package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type templates struct {
	board *template.Template
	index *template.Template
	page  *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellSymbol": func(c domain.Cell) string { return c.String() },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-Tac-Toe</h1>
{{if .}}<p><a href="/session/{{.}}">Continue your game</a></p>{{end}}
<form action="/session" method="post">
  <label><input type="radio" name="symbol" value="X" checked> X</label>
  <label><input type="radio" name="symbol" value="O"> O</label>
  <button>New game</button>
</form>`))
	page := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/session/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{board: board, index: index, page: page}
}

func renderTemplate(t *template.Template, data any) []byte {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.Bytes()
}

type cellView struct {
	Index int
	Cell  domain.Cell
	Last  bool
}

type boardView struct {
	ID       string
	Cells    []cellView
	Player   string
	Score    string
	Message  string
	Error    string
	Thinking bool
}

func newBoardView(ss app.Session, errMsg string) boardView {
	v := boardView{
		ID:       ss.ID,
		Player:   ss.Game.Symbols.Player.String(),
		Score:    ss.Score.String(),
		Message:  ss.Result.Message(),
		Error:    errMsg,
		Thinking: ss.Thinking,
	}
	for i, c := range ss.Shown() {
		v.Cells = append(v.Cells, cellView{Index: i, Cell: c, Last: i == ss.LastAIMove})
	}
	return v
}

const boardTemplate = `
<div id="board">
  <p class="score">{{.Score}}</p>
  {{if .Message}}<div class="result">{{.Message}}</div>{{end}}
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  {{if .Thinking}}<div class="thinking">Computer is thinking…</div>{{end}}
  <form hx-post="/session/{{.ID}}/symbol" hx-target="#board" hx-swap="outerHTML" method="post">
    Symbol:
    <label><input type="radio" name="symbol" value="X" {{if eq .Player "X"}}checked{{end}} onchange="this.form.requestSubmit()"> X</label>
    <label><input type="radio" name="symbol" value="O" {{if eq .Player "O"}}checked{{end}} onchange="this.form.requestSubmit()"> O</label>
  </form>
  <div class="grid">
    {{range .Cells}}
      <form hx-post="/session/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="cell" value="{{.Index}}">
        <button type="submit" class="cell{{if .Last}} last{{end}}">{{cellSymbol .Cell}}</button>
      </form>
    {{end}}
  </div>
  <form hx-post="/session/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post">
    <button type="submit">Restart Game</button>
  </form>
</div>
`

const sessionCookie = "session_id"

// sessionFromCookie returns the session id remembered by the browser.
func sessionFromCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func rememberSession(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true})
}
