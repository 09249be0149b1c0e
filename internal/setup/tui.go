package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/config"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers holds the raw wizard input before it becomes a config.Config.
type answers struct {
	pair            string
	source          string
	marketQuote     string
	refreshInterval string
	genesisAsset    string
	genesisQuote    string
	listen          string
	chartMaxPoints  string
}

func defaultAnswers() answers {
	def := config.Default()
	return answers{
		pair:            def.Pair.String(),
		source:          def.Source,
		marketQuote:     def.MarketQuote,
		refreshInterval: def.RefreshInterval.String(),
		genesisAsset:    def.GenesisAsset.String(),
		genesisQuote:    def.GenesisQuote.String(),
		listen:          def.Listen,
		chartMaxPoints:  strconv.Itoa(def.ChartMaxPoints),
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("PAPERDASH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	if path == "" {
		path = config.DefaultFile
	}
	a := defaultAnswers()
	var confirm bool

	step("STEP 1: INSTRUMENT")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Paper trading, no real orders are ever placed.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pair").
				Description("BASE_QUOTE, the quote is your wallet currency (e.g. BTC_EUR)").
				Value(&a.pair).
				Validate(validatePair),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: MARKET DATA")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Price source").
				Options(
					huh.NewOption("Synthetic (offline)", config.SourceSynthetic),
					huh.NewOption("CoinCap (needs COINCAP_API_KEY)", config.SourceCoinCap),
					huh.NewOption("Binance", config.SourceBinance),
					huh.NewOption("Bybit", config.SourceBybit),
					huh.NewOption("Hyperliquid", config.SourceHyperliquid),
				).
				Value(&a.source),
			huh.NewInput().
				Title("Exchange quote").
				Description("Market the exchange sources read, converted to your wallet currency").
				Value(&a.marketQuote),
			huh.NewInput().
				Title("Refresh Interval").
				Description("Duration string (e.g. 10s, 1m)").
				Value(&a.refreshInterval).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: WALLET")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Starting asset balance").
				Value(&a.genesisAsset).
				Validate(validateBalance),
			huh.NewInput().
				Title("Starting quote balance").
				Value(&a.genesisQuote).
				Validate(validateBalance),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: WEB")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&a.listen),
			huh.NewInput().
				Title("Chart points").
				Description("Maximum points per chart, 0 shows the full series").
				Value(&a.chartMaxPoints).
				Validate(validateCount),
		),
	).Run()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Pair: %s\nSource: %s\nRefresh: %s\nWallet: %s / %s\nListen: %s\n",
		a.pair, a.source, a.refreshInterval, a.genesisAsset, a.genesisQuote, a.listen,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := Save(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

// Save converts the answers and writes them as YAML.
func Save(path string, a answers) error {
	conf, err := a.config()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(conf.Tmp())
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}

func (a answers) config() (config.Config, error) {
	tmp := config.ConfigTmp{
		Pair:         a.pair,
		Source:       a.source,
		MarketQuote:  a.marketQuote,
		GenesisAsset: a.genesisAsset,
		GenesisQuote: a.genesisQuote,
		Listen:       a.listen,
	}
	if a.refreshInterval != "" {
		d, err := time.ParseDuration(a.refreshInterval)
		if err != nil {
			return config.Config{}, errors.Wrap(err, "refresh interval")
		}
		tmp.RefreshInterval = d
	}
	if a.chartMaxPoints != "" {
		n, err := strconv.Atoi(a.chartMaxPoints)
		if err != nil {
			return config.Config{}, errors.Wrap(err, "chart points")
		}
		tmp.ChartMaxPoints = &n
	}
	return tmp.Parse()
}

func validatePair(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("pair cannot be empty")
	}
	_, err := domain.ParsePair(s)
	return err
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateBalance(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func validateCount(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return errors.New("must be a non-negative integer")
	}
	return nil
}
