package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Simplici0/printledger/internal/pricing"
	"github.com/Simplici0/printledger/internal/store"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Quote an item with the persisted settings without saving it",
		Args:  cobra.NoArgs,
		RunE:  runPrice,
	}

	flags := cmd.Flags()
	flags.Int64("filament-id", 0, "filament to take cost per gram from")
	flags.Float64("grams", 0, "grams of filament used")
	flags.Float64("hours", 0, "print time in hours")
	flags.Float64("hourly-rate", 0, "hourly rate override")
	flags.Float64("kw", 0, "electricity consumed in kWh")
	flags.Float64("margin", 0, "profit margin override in percent")

	return cmd
}

func runPrice(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	st := store.New(a.db)
	settings, err := st.ResolveSettings(cmd.Context())
	if err != nil {
		return err
	}

	var in pricing.ItemInput
	for name, dst := range map[string]**float64{
		"grams":       &in.GramsUsed,
		"hours":       &in.PrintTimeHours,
		"hourly-rate": &in.HourlyRate,
		"kw":          &in.ElectricityKW,
		"margin":      &in.ProfitMargin,
	} {
		if *dst, err = optionalFloat(cmd, name); err != nil {
			return err
		}
	}

	var costPerGram *float64
	if cmd.Flags().Changed("filament-id") {
		id, err := cmd.Flags().GetInt64("filament-id")
		if err != nil {
			return err
		}
		filament, err := st.GetFilament(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("filament %d does not exist", id)
		}
		if err != nil {
			return err
		}
		costPerGram = &filament.CostPerGram
	}

	printQuote(cmd.OutOrStdout(), pricing.Quote(in, costPerGram, settings), settings.Currency)
	return nil
}

func optionalFloat(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func printQuote(w io.Writer, snap pricing.Snapshot, currency string) {
	rows := []struct {
		label string
		value float64
	}{
		{"material", snap.MaterialCost},
		{"labor", snap.LaborCost},
		{"electricity", snap.ElectricityCost},
		{"cost without labor", snap.TotalCostNoLabor},
		{"build price", snap.BuildPrice},
		{"final price", snap.FinalPrice},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s %10.2f %s\n", r.label, r.value, currency)
	}
	fmt.Fprintf(w, "%-20s %10.2f %%\n", "profit margin", snap.ProfitMargin)
}
