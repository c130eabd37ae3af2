package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show persisted preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefs,
}

var surveyCmd = &cobra.Command{
	Use:   "survey <survey-id>",
	Short: "Show recorded microsurvey interactions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSurvey,
}

func runPrefs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	prefs, err := st.Prefs()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(prefs) == 0 {
		fmt.Fprintln(out, "No preferences stored.")
		return nil
	}

	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%-30s %s\n", k, prefs[k])
	}
	return nil
}

func runSurvey(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.SurveyEvents(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Kind]++
		line := fmt.Sprintf("%s  %-10s", ev.Created.Format("2006-01-02 15:04:05"), ev.Kind)
		if ev.Option != "" {
			line += "  " + ev.Option
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%d impressions, %d responses, %d dismissals\n",
		counts["impression"], counts["response"], counts["dismissal"])
	return nil
}
