package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"engineer-alpha/internal/analysis"
	"engineer-alpha/internal/chart"
	"engineer-alpha/internal/domain"
	"engineer-alpha/internal/present"
	"engineer-alpha/pkg/money"

	tele "gopkg.in/telebot.v3"
)

const analyzeUsage = "Usage: /analyze TICKER [years] [mode]\nExample: /analyze MSFT 10 standard\nModes: conservative, standard, aggressive"

var renderZonesFunc = chart.RenderZones

// Defaults fills in omitted /analyze arguments.
type Defaults struct {
	Years int
	Mode  domain.InvestmentMode
}

func StartTelegramBot(analyzer analysis.Analyzer, defaults Defaults) *SessionRegistry {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	sessions := NewSessionRegistry(analyzer)

	b.Handle("/start", func(c tele.Context) error {
		return c.Send("Buy-zone analyzer.\n" + analyzeUsage + "\n/dismiss clears the last error, /reset forgets this chat.")
	})

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/modes", func(c tele.Context) error {
		lines := make([]string, 0, len(domain.SupportedModes))
		for _, m := range domain.SupportedModes {
			lines = append(lines, fmt.Sprintf("%s (%s)", m, analysis.ModeLabel(m)))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle("/analyze", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		raw, err := parseAnalyzeArgs(c.Args(), defaults)
		if err != nil {
			return c.Send(analyzeUsage)
		}
		_ = c.Notify(tele.Typing)

		reply, ok := runAnalysis(context.Background(), sessions.Get(chat.ID), raw)
		if !ok {
			// a newer /analyze in this chat owns the reply
			return nil
		}
		if err := c.Send(reply.Text); err != nil {
			return err
		}
		if reply.Chart == nil {
			return nil
		}
		return c.Send(&tele.Photo{
			File:    tele.FromReader(bytes.NewReader(reply.Chart.Bytes)),
			Caption: reply.Caption,
		})
	})

	b.Handle("/dismiss", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		session, ok := sessions.Lookup(chat.ID)
		if !ok || !session.Snapshot().HasError() {
			return c.Send("Nothing to dismiss.")
		}
		session.DismissError()
		snap := session.Snapshot()
		if snap.HasResult() {
			return c.Send("Error cleared. Last result:\n\n" + formatResult(snap))
		}
		return c.Send("Error cleared.")
	})

	b.Handle("/reset", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		if sessions.Forget(chat.ID) {
			return c.Send("Session cleared.")
		}
		return c.Send("No session to clear.")
	})

	log.Println("Telegram bot started")
	go b.Start()
	return sessions
}

type analysisReply struct {
	Text    string
	Chart   *chart.Image
	Caption string
}

// runAnalysis submits raw on session and renders the reply. ok is false when the
// request was superseded before it finished.
func runAnalysis(ctx context.Context, session *analysis.Session, raw analysis.RawInput) (reply analysisReply, ok bool) {
	ticket, err := session.Begin(raw)
	if err != nil {
		return analysisReply{Text: "⚠️ " + domain.DisplayMessage(err) + "\n\n" + analyzeUsage}, true
	}

	resp, err := session.Dispatch(ctx, ticket)
	if !session.Resolve(ticket, resp, err) {
		return analysisReply{}, false
	}

	snap := session.Snapshot()
	if snap.HasError() {
		log.Printf("analysis for %s failed: %v", ticket.Request.Ticker, err)
		msg := "⚠️ " + snap.ErrorMessage
		if snap.HasResult() {
			msg += fmt.Sprintf("\nLast result for %s is still available, send /dismiss to see it.", snap.ResultRequest.Ticker)
		}
		return analysisReply{Text: msg}, true
	}
	present.FlagUnknownLabels(snap.Result)

	reply = analysisReply{Text: formatResult(snap)}
	img, err := renderZonesFunc(*snap.ResultRequest, snap.Result)
	if err != nil {
		log.Printf("zone chart for %s failed: %v", snap.ResultRequest.Ticker, err)
		return reply, true
	}
	reply.Chart = img
	reply.Caption = fmt.Sprintf("%s buy zones (%s)", snap.ResultRequest.Ticker, snap.ResultRequest.Mode)
	return reply, true
}

func parseAnalyzeArgs(args []string, defaults Defaults) (analysis.RawInput, error) {
	raw := analysis.RawInput{Years: defaults.Years, Mode: string(defaults.Mode)}
	if raw.Years == 0 {
		raw.Years = domain.DefaultYears
	}
	if raw.Mode == "" {
		raw.Mode = string(domain.DefaultMode)
	}

	var positional []string
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			positional = append(positional, arg)
		}
	}
	if len(positional) == 0 {
		return analysis.RawInput{}, errors.New("missing ticker")
	}
	if len(positional) > 3 {
		return analysis.RawInput{}, errors.New("too many arguments")
	}
	raw.Ticker = positional[0]

	// years and mode may come in either order, each at most once
	var sawYears, sawMode bool
	for _, arg := range positional[1:] {
		if n, err := strconv.Atoi(arg); err == nil {
			if sawYears {
				return analysis.RawInput{}, errors.New("years given twice")
			}
			sawYears = true
			raw.Years = n
			continue
		}
		if sawMode {
			return analysis.RawInput{}, errors.New("mode given twice")
		}
		sawMode = true
		raw.Mode = arg
	}
	return raw, nil
}

func formatResult(snap analysis.Snapshot) string {
	res := snap.Result
	req := snap.ResultRequest
	if res == nil || req == nil {
		return ""
	}

	lines := []string{
		fmt.Sprintf("%s · %d years · %s", req.Ticker, req.Years, req.Mode),
		present.Verdict(res.Signal),
		"",
		fmt.Sprintf("Signal: %s", present.SignalBadge(res.Signal.Signal).Text()),
		fmt.Sprintf("Last: %s  RSI: %.1f", money.FormatValue(res.Signal.Last), res.Signal.RSI),
		present.Percentiles(res.Signal),
		fmt.Sprintf("Risk: %s (%s), trend %s", present.RiskBadge(res.Risk.Risk).Text(), present.RiskScore(res.Risk.RiskScore), present.TrendLabel(res.Risk.TrendUp)),
	}

	if res.Zones != nil {
		rec := analysis.RecommendZone(req.Mode, *res.Zones)
		lines = append(lines,
			"",
			fmt.Sprintf("Recommended zone (%s): %s", rec.Label, rec.Display()),
			fmt.Sprintf("%s %s | %s %s | %s %s",
				analysis.LabelConservative, money.Range(res.Zones.Conservative.Low(), res.Zones.Conservative.High()),
				analysis.LabelStandard, money.Range(res.Zones.Neutral.Low(), res.Zones.Neutral.High()),
				analysis.LabelAggressive, money.Range(res.Zones.Aggressive.Low(), res.Zones.Aggressive.High()),
			),
		)
	}

	lines = append(lines,
		"",
		fmt.Sprintf("First add: %s", money.FormatValue(res.AddLevels.FirstAdd)),
		fmt.Sprintf("Pullback add: %s", money.FormatValue(res.AddLevels.PullbackAdd)),
		fmt.Sprintf("Value pocket: %s", money.Format(res.AddLevels.ValuePocketAdd)),
	)
	if fv := res.FairValue; fv != nil {
		lines = append(lines, fmt.Sprintf("Fair value (%s): %s / %s / %s", fv.Method, money.Format(fv.FairLow), money.Format(fv.FairMid), money.Format(fv.FairHigh)))
	}
	return strings.Join(lines, "\n")
}
