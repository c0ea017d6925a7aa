package market

import (
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
)

// Default returns the built-in sample market of ten UAE-listed companies.
func Default() model.MarketState {
	return model.MarketState{
		Companies: []model.Company{
			{ID: "EMAAR", Name: "Emaar Properties", Ticker: "EMAAR", Sector: "Real Estate",
				Description: "Leading global property developer and provider of premium lifestyles, with a presence in 36 markets across the Middle East."},
			{ID: "DIB", Name: "Dubai Islamic Bank", Ticker: "DIB", Sector: "Banking",
				Description: "First Islamic bank in the UAE offering Sharia-compliant products and services."},
			{ID: "DFM", Name: "Dubai Financial Market", Ticker: "DFM", Sector: "Financial Services",
				Description: "Dubai's main stock exchange established in 2000 as a public institution with its own independent corporate body."},
			{ID: "EMIRATES", Name: "Emirates NBD", Ticker: "EMIRATES", Sector: "Banking",
				Description: "One of the largest banking groups in the Middle East in terms of assets."},
			{ID: "ETISALAT", Name: "Etisalat UAE", Ticker: "ETISALAT", Sector: "Telecommunications",
				Description: "Leading telecommunications provider in the UAE offering mobile and fixed-line services."},
			{ID: "DAMAC", Name: "Damac Properties", Ticker: "DAMAC", Sector: "Real Estate",
				Description: "Luxury real estate developer focusing on high-end properties across the UAE and international markets."},
			{ID: "ADNOC", Name: "ADNOC Distribution", Ticker: "ADNOC", Sector: "Energy",
				Description: "Leading fuel distributor in the UAE with a network of service stations across the country."},
			{ID: "ARAMEX", Name: "Aramex", Ticker: "ARAMEX", Sector: "Logistics",
				Description: "Global provider of comprehensive logistics and transportation solutions."},
			{ID: "ALDAR", Name: "Aldar Properties", Ticker: "ALDAR", Sector: "Real Estate",
				Description: "Abu Dhabi's leading property development, management and investment company."},
			{ID: "ENBD", Name: "Emirates NBD REIT", Ticker: "ENBD", Sector: "Real Estate Investment Trust",
				Description: "First Shari'a compliant Real Estate Investment Trust listed on NASDAQ Dubai."},
		},
		PriceData: []model.PriceRow{
			row("EMAAR", "5.72", "5.85", "5.93", "5.79", "6.04"),
			row("DIB", "4.89", "4.95", "5.12", "5.08", "5.24"),
			row("DFM", "1.44", "1.47", "1.43", "1.38", "1.42"),
			row("EMIRATES", "13.65", "13.80", "13.95", "14.25", "14.10"),
			row("ETISALAT", "17.52", "17.48", "17.86", "17.92", "18.15"),
			row("DAMAC", "1.28", "1.32", "1.27", "1.25", "1.30"),
			row("ADNOC", "4.15", "4.22", "4.30", "4.18", "4.28"),
			row("ARAMEX", "3.75", "3.82", "3.78", "3.90", "3.86"),
			row("ALDAR", "3.92", "4.08", "4.15", "4.10", "4.22"),
			row("ENBD", "0.85", "0.83", "0.86", "0.88", "0.90"),
		},
	}
}

func row(id string, prices ...string) model.PriceRow {
	p := make([]decimal.Decimal, 5)
	for i, s := range prices {
		p[i] = decimal.RequireFromString(s)
	}
	return model.PriceRow{
		CompanyID: id,
		Day1Price: p[0],
		Day2Price: p[1],
		Day3Price: p[2],
		Day4Price: p[3],
		Day5Price: p[4],
	}
}
