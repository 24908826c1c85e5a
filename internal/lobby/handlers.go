package lobby

import (
	"embed"
	"html/template"
	"net/http"

	"aimlab/internal/aimlab"

	"github.com/charmbracelet/log"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type ModeCard struct {
	Mode         aimlab.Mode
	Title        string
	Subtitle     string
	SafeGradient template.CSS
	BtnText      string
}

type Translations struct {
	LobbyName   string
	Simulation  string
	Controls    string
	Log         string
	Analysis    string
	Tutorial    string
	Stop        string
	Reset       string
	Randomize   string
	NoData      string
	LangCurrent string
}

type PageData struct {
	Modes    []ModeCard
	Text     Translations
	Lang     string
	Settings aimlab.Settings
	Snapshot aimlab.Snapshot
	Records  []aimlab.PerformanceRecord
}

var texts = map[string]Translations{
	"en": {
		LobbyName:   "Aim Lab",
		Simulation:  "Simulation Environment",
		Controls:    "Simulation Controls",
		Log:         "Simulation Log",
		Analysis:    "Analysis",
		Tutorial:    "Interactive Tutorials",
		Stop:        "Stop",
		Reset:       "Reset All",
		Randomize:   "Randomize Positions",
		NoData:      "Run a simulation to see performance analysis.",
		LangCurrent: "ENG",
	},
	"ua": {
		LobbyName:   "Aim Lab",
		Simulation:  "Середовище симуляції",
		Controls:    "Керування симуляцією",
		Log:         "Журнал симуляції",
		Analysis:    "Аналіз",
		Tutorial:    "Інтерактивні уроки",
		Stop:        "Стоп",
		Reset:       "Скинути все",
		Randomize:   "Випадкові позиції",
		NoData:      "Запустіть симуляцію, щоб побачити аналіз.",
		LangCurrent: "UKR",
	},
}

func modeCards(lang string) []ModeCard {
	btn := "RUN"
	if lang == "ua" {
		btn = "СТАРТ"
	}
	return []ModeCard{
		{
			Mode: aimlab.ModeManual, Title: "Manual", Subtitle: "No assistance",
			SafeGradient: template.CSS("linear-gradient(135deg, #232526 0%, #414345 100%)"), BtnText: btn,
		},
		{
			Mode: aimlab.ModeAimAssist, Title: "Aim Assist", Subtitle: "Pull + organic noise",
			SafeGradient: template.CSS("linear-gradient(135deg, #36d1dc 0%, #5b86e5 100%)"), BtnText: btn,
		},
		{
			Mode: aimlab.ModeAimlock, Title: "Aimlock", Subtitle: "Perfect tracking",
			SafeGradient: template.CSS("linear-gradient(135deg, #ff4e50 0%, #f9d423 100%)"), BtnText: btn,
		},
	}
}

func normalizeLang(raw string) string {
	switch raw {
	case "ua", "en":
		return raw
	default:
		return "en"
	}
}

func NewHandler(sim *aimlab.Simulation, records aimlab.RecordLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		lang := normalizeLang(r.URL.Query().Get("lang"))

		recs, err := records.List(r.Context())
		if err != nil {
			log.Error("Failed to list records for lobby", "err", err)
		}
		snap := sim.Snapshot()
		page := PageData{
			Modes:    modeCards(lang),
			Text:     texts[lang],
			Lang:     lang,
			Settings: snap.Settings,
			Snapshot: snap,
			Records:  recs,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, page); err != nil {
			log.Error("Failed to render lobby", "err", err)
		}
	}
}
