package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/screenstate/internal/coord"
	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/otel"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// brightnessStep is how far +/- move the brightness threshold.
const brightnessStep = 0.05

// DefaultSurveyOptions are the answers offered by the survey screen.
var DefaultSurveyOptions = []string{
	"Very satisfied", "Satisfied", "Neutral", "Dissatisfied", "Very dissatisfied",
}

// AppConfig holds the collaborators the App talks to.
// IMPORTANT: App never holds a store. It dispatches actions and receives
// states via messages.
type AppConfig struct {
	Window        redux.WindowUUID
	Dispatch      func(redux.Action)
	Open          func(coord.Route) tea.Cmd // ask the navigator to present a screen
	Back          func(coord.Route) tea.Cmd // ask the navigator to close a screen
	SystemDark    func() bool
	Ring          *otel.Ring // optional, feeds the debug overlay
	SurveyID      string
	SurveyOptions []string
}

// App is the root Bubble Tea model.
type App struct {
	cfg  AppConfig
	keys keyMap

	routes []coord.Route // presented screens, top last

	theme  theme.State
	survey microsurvey.State
	wall   wallpaper.State
	qr     qrcode.State

	surveyCursor int
	wallCursor   int
	lastURL      string

	help    help.Model
	spinner spinner.Model
	bar     progress.Model
	input   textinput.Model

	err       error
	width     int
	height    int
	ready     bool
	showDebug bool
}

// NewApp creates an App. Nil callbacks are replaced by no-ops.
func NewApp(cfg AppConfig) App {
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(redux.Action) {}
	}
	if cfg.Open == nil {
		cfg.Open = func(coord.Route) tea.Cmd { return nil }
	}
	if cfg.Back == nil {
		cfg.Back = func(coord.Route) tea.Cmd { return nil }
	}
	if cfg.SystemDark == nil {
		cfg.SystemDark = func() bool { return false }
	}
	if cfg.SurveyID == "" {
		cfg.SurveyID = "default-survey"
	}
	if len(cfg.SurveyOptions) == 0 {
		cfg.SurveyOptions = DefaultSurveyOptions
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Placeholder = "paste or type the scanned code"
	in.CharLimit = 2048

	return App{
		cfg:     cfg,
		keys:    defaultKeyMap(),
		theme:   theme.NewState(cfg.Window),
		survey:  microsurvey.NewState(cfg.Window),
		wall:    wallpaper.NewState(cfg.Window),
		qr:      qrcode.NewState(cfg.Window),
		help:    help.New(),
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:   in,
	}
}

// Init asks the navigator for the root screen.
func (a App) Init() tea.Cmd {
	return a.cfg.Open(coord.RouteBrowser)
}

func (a App) meta() redux.ActionMeta { return redux.Meta(a.cfg.Window) }

// debugWindow is the window id the overlay trails, empty when unrouted.
func (a App) debugWindow() string {
	if a.cfg.Window.IsZero() {
		return ""
	}
	return a.cfg.Window.String()
}

// Top returns the screen on top, or "" before the first presentation.
func (a App) Top() coord.Route {
	if len(a.routes) == 0 {
		return ""
	}
	return a.routes[len(a.routes)-1]
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.bar.Width = min(40, max(10, msg.Width-30))
		a.ready = true
		return a, nil

	case ThemeUpdated:
		a.theme = msg.State
		return a, nil

	case SurveyUpdated:
		a.survey = msg.State
		return a, nil

	case WallpaperUpdated:
		wasLoading := a.wall.Loading
		a.wall = msg.State
		if n := len(wallpaper.Wallpapers(a.wall.Collections)); a.wallCursor >= n {
			a.wallCursor = max(0, n-1)
		}
		if a.wall.Loading && !wasLoading {
			return a, a.spinner.Tick
		}
		return a, nil

	case QRCodeUpdated:
		a.qr = msg.State
		return a, nil

	case RoutePresented:
		a.routes = append(a.routes, msg.Route)
		return a, a.appear(msg.Route)

	case RouteDismissed:
		for i := len(a.routes) - 1; i >= 0; i-- {
			if a.routes[i] == msg.Route {
				a.routes = append(a.routes[:i:i], a.routes[i+1:]...)
				break
			}
		}
		if msg.Route == coord.RouteQRCode {
			a.input.Blur()
		}
		return a, nil

	case URLOpened:
		a.lastURL = msg.URL
		return a, nil

	case NavigationFailed:
		a.err = msg.Err
		return a, nil

	case DebugTick:
		if a.showDebug {
			return a, debugTick()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.wall.Loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.Top() == coord.RouteQRCode {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// appear dispatches the load action of a newly presented screen.
func (a *App) appear(r coord.Route) tea.Cmd {
	switch r {
	case coord.RouteThemeSettings:
		a.cfg.Dispatch(theme.ViewDidLoad{ActionMeta: a.meta()})
	case coord.RouteWallpaper:
		a.wallCursor = 0
		a.cfg.Dispatch(wallpaper.ViewDidLoad{ActionMeta: a.meta()})
	case coord.RouteMicrosurvey:
		a.surveyCursor = 0
		a.cfg.Dispatch(microsurvey.SurveyDidAppear{ActionMeta: a.meta(), SurveyID: a.cfg.SurveyID})
	case coord.RouteQRCode:
		a.cfg.Dispatch(qrcode.ScannerDidAppear{ActionMeta: a.meta()})
		a.input.Reset()
		return a.input.Focus()
	}
	return nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	top := a.Top()

	// The scanner input swallows printable keys.
	if top == coord.RouteQRCode {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return a, tea.Quit
		case key.Matches(msg, a.keys.Back):
			a.cfg.Dispatch(qrcode.Dismiss{ActionMeta: a.meta()})
			return a, nil
		case key.Matches(msg, a.keys.Enter):
			a.cfg.Dispatch(qrcode.CodeScanned{ActionMeta: a.meta(), Text: a.input.Value()})
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		if a.showDebug {
			return a, debugTick()
		}
		return a, nil
	}

	switch top {
	case coord.RouteBrowser:
		return a.browserKeys(msg)
	case coord.RouteThemeSettings:
		return a.themeKeys(msg)
	case coord.RouteMicrosurvey:
		return a.surveyKeys(msg)
	case coord.RoutePrivacyNotice:
		if key.Matches(msg, a.keys.Back) {
			return a, a.cfg.Back(coord.RoutePrivacyNotice)
		}
	case coord.RouteWallpaper:
		return a.wallpaperKeys(msg)
	}
	return a, nil
}

func (a App) browserKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Theme):
		return a, a.cfg.Open(coord.RouteThemeSettings)
	case key.Matches(msg, a.keys.Survey):
		return a, a.cfg.Open(coord.RouteMicrosurvey)
	case key.Matches(msg, a.keys.Wallpaper):
		return a, a.cfg.Open(coord.RouteWallpaper)
	case key.Matches(msg, a.keys.Scan):
		return a, a.cfg.Open(coord.RouteQRCode)
	}
	return a, nil
}

func (a App) themeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := a.meta()
	switch {
	case key.Matches(msg, a.keys.SystemAppearance):
		a.cfg.Dispatch(theme.ToggleUseSystemAppearance{ActionMeta: m, Enabled: !a.theme.UseSystemAppearance})
	case key.Matches(msg, a.keys.AutoBrightness):
		a.cfg.Dispatch(theme.EnableAutomaticBrightness{ActionMeta: m, Enabled: !a.theme.AutomaticBrightness})
	case key.Matches(msg, a.keys.ManualTheme):
		next := theme.Dark
		if a.theme.ManualTheme == theme.Dark {
			next = theme.Light
		}
		a.cfg.Dispatch(theme.SwitchManualTheme{ActionMeta: m, Theme: next})
	case key.Matches(msg, a.keys.Brighter):
		a.cfg.Dispatch(theme.UpdateUserBrightness{ActionMeta: m, Value: a.theme.UserBrightnessThreshold + brightnessStep})
	case key.Matches(msg, a.keys.Dimmer):
		a.cfg.Dispatch(theme.UpdateUserBrightness{ActionMeta: m, Value: a.theme.UserBrightnessThreshold - brightnessStep})
	case key.Matches(msg, a.keys.Back):
		return a, a.cfg.Back(coord.RouteThemeSettings)
	}
	return a, nil
}

func (a App) surveyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := a.meta()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.surveyCursor > 0 {
			a.surveyCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.surveyCursor < len(a.cfg.SurveyOptions)-1 {
			a.surveyCursor++
		}
	case key.Matches(msg, a.keys.Enter):
		if a.survey.Submitted {
			a.cfg.Dispatch(microsurvey.ConfirmationViewed{ActionMeta: m})
			return a, nil
		}
		option := a.cfg.SurveyOptions[a.surveyCursor]
		a.cfg.Dispatch(microsurvey.SelectOption{ActionMeta: m, Option: option})
		a.cfg.Dispatch(microsurvey.SubmitSurvey{ActionMeta: m, SurveyID: a.cfg.SurveyID, Option: option})
	case key.Matches(msg, a.keys.Privacy):
		a.cfg.Dispatch(microsurvey.NavigateToPrivacyNotice{ActionMeta: m})
	case key.Matches(msg, a.keys.Back):
		a.cfg.Dispatch(microsurvey.DismissSurvey{ActionMeta: m})
	}
	return a, nil
}

func (a App) wallpaperKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ws := wallpaper.Wallpapers(a.wall.Collections)
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.wallCursor > 0 {
			a.wallCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.wallCursor < len(ws)-1 {
			a.wallCursor++
		}
	case key.Matches(msg, a.keys.Enter):
		if a.wallCursor < len(ws) {
			a.cfg.Dispatch(wallpaper.SelectWallpaper{ActionMeta: a.meta(), ID: ws[a.wallCursor].ID})
		}
	case key.Matches(msg, a.keys.Back):
		return a, a.cfg.Back(coord.RouteWallpaper)
	}
	return a, nil
}

func debugTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return DebugTick{} })
}

// routeHelp adapts a binding list to help.KeyMap.
type routeHelp struct {
	short  []key.Binding
	global []key.Binding
}

func (h routeHelp) ShortHelp() []key.Binding  { return h.short }
func (h routeHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.short, h.global} }

// View renders the UI.
func (a App) View() string {
	if !a.ready || len(a.routes) == 0 {
		return "Loading..."
	}

	if a.showDebug {
		return debugOverlay(a.cfg.Ring, a.debugWindow(), a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var body string
	switch a.Top() {
	case coord.RouteThemeSettings:
		body = a.themeView()
	case coord.RouteMicrosurvey:
		body = a.surveyView()
	case coord.RoutePrivacyNotice:
		body = Notice.Render("Your answers are stored on this device only.\n" +
			"Responses are used to improve the browser and are never sold.")
	case coord.RouteWallpaper:
		body = a.wallpaperView()
	case coord.RouteQRCode:
		body = a.qrView()
	default:
		body = a.browserView()
	}

	effective := a.theme.Effective(a.cfg.SystemDark())
	palette := lightPalette
	if effective == theme.Dark {
		palette = darkPalette
	}
	frame := lipgloss.NewStyle().Foreground(palette.Foreground).Background(palette.Background).Width(a.width)

	header := Title.Render(screenTitle(a.Top())) + MutedItem.Render(string(effective))

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)") + "\n"
	}

	helpLine := a.help.View(routeHelp{
		short:  a.keys.forRoute(a.Top()),
		global: []key.Binding{a.keys.Help, a.keys.Debug, a.keys.Quit},
	})

	return header + "\n" + frame.Render(body) + "\n" + errorBar + StatusBar.Width(a.width).Render(helpLine)
}

func screenTitle(r coord.Route) string {
	switch r {
	case coord.RouteThemeSettings:
		return "Theme"
	case coord.RouteMicrosurvey:
		return "Survey"
	case coord.RoutePrivacyNotice:
		return "Privacy Notice"
	case coord.RouteWallpaper:
		return "Wallpaper"
	case coord.RouteQRCode:
		return "Scan QR Code"
	}
	return "screenstate"
}

func toggle(on bool) string {
	if on {
		return ToggleOn.Render("on")
	}
	return ToggleOff.Render("off")
}

func (a App) browserView() string {
	lines := []string{NormalItem.Render("New tab")}
	if a.lastURL != "" {
		lines = append(lines, NormalItem.Render("Opened: "+a.lastURL))
	}
	if a.wall.Selected != "" {
		lines = append(lines, MutedItem.Render("Wallpaper: "+a.wall.Selected))
	}
	return strings.Join(lines, "\n")
}

func (a App) themeView() string {
	s := a.theme
	lines := []string{
		NormalItem.Render("Use system light/dark mode  " + toggle(s.UseSystemAppearance)),
		NormalItem.Render("Automatic brightness        " + toggle(s.AutomaticBrightness)),
		NormalItem.Render("Manual theme                " + string(s.ManualTheme)),
		NormalItem.Render(fmt.Sprintf("Threshold %3.0f%%  ", s.UserBrightnessThreshold*100) + a.bar.ViewAs(s.UserBrightnessThreshold)),
		MutedItem.Render(fmt.Sprintf("Screen brightness %3.0f%%", s.SystemBrightness*100)),
	}
	return strings.Join(lines, "\n")
}

func (a App) surveyView() string {
	if a.survey.Submitted {
		return Checkmark.Render("✓ ") + NormalItem.Render("Thanks for your feedback!") + "\n" +
			MutedItem.Render("press enter to close")
	}
	lines := []string{NormalItem.Render("How satisfied are you with this browser?")}
	for i, opt := range a.cfg.SurveyOptions {
		mark := "  "
		if opt == a.survey.Selected {
			mark = "• "
		}
		if i == a.surveyCursor {
			lines = append(lines, SelectedItem.Render(mark+opt))
		} else {
			lines = append(lines, NormalItem.Render(mark+opt))
		}
	}
	return strings.Join(lines, "\n")
}

func (a App) wallpaperView() string {
	if a.wall.Loading && len(a.wall.Collections) == 0 {
		return NormalItem.Render(a.spinner.View() + " Loading wallpapers...")
	}
	var lines []string
	if a.wall.Err != "" {
		lines = append(lines, ErrorStyle.Render("Could not load wallpapers: "+a.wall.Err))
	}
	i := 0
	for _, c := range a.wall.Collections {
		lines = append(lines, SectionHeader.Render(c.ID))
		for _, w := range c.Wallpapers {
			label := w.ID
			if w.ID == a.wall.Selected {
				label = Checkmark.Render("✓ ") + label
			}
			if _, ok := a.wall.Thumbnails[w.ID]; !ok {
				label += MutedItem.Render("(no preview)")
			}
			if i == a.wallCursor {
				lines = append(lines, SelectedItem.Render(label))
			} else {
				lines = append(lines, NormalItem.Render(label))
			}
			i++
		}
	}
	if len(lines) == 0 {
		lines = append(lines, MutedItem.Render("No wallpapers available"))
	}
	return strings.Join(lines, "\n")
}

func (a App) qrView() string {
	lines := []string{NormalItem.Render(a.input.View())}
	if a.qr.Err != "" {
		lines = append(lines, ErrorStyle.Render(a.qr.Err))
	}
	return strings.Join(lines, "\n")
}

// Routes returns the presented screens (for testing).
func (a App) Routes() []coord.Route {
	return append([]coord.Route(nil), a.routes...)
}
