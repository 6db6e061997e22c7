// internal/postcode/fallback.go
//
// Hard-coded postcode table: the availability floor when no API key is
// configured or the provider is down.  Covers capital-city and
// high-traffic codes; unknown codes resolve to an empty list.
//
//------------------------------------------------------------------------------

package postcode

var fallbackTable = map[string][]Suburb{
	// NSW
	"2000": {{Name: "Sydney", State: "NSW"}, {Name: "Barangaroo", State: "NSW"}, {Name: "Haymarket", State: "NSW"}},
	"2010": {{Name: "Surry Hills", State: "NSW"}, {Name: "Darlinghurst", State: "NSW"}},
	"2026": {{Name: "Bondi", State: "NSW"}, {Name: "Bondi Beach", State: "NSW"}, {Name: "Tamarama", State: "NSW"}},
	"2060": {{Name: "North Sydney", State: "NSW"}, {Name: "Waverton", State: "NSW"}},
	"2150": {{Name: "Parramatta", State: "NSW"}, {Name: "Harris Park", State: "NSW"}},
	"2170": {{Name: "Liverpool", State: "NSW"}, {Name: "Casula", State: "NSW"}, {Name: "Moorebank", State: "NSW"}},
	"2250": {{Name: "Gosford", State: "NSW"}, {Name: "East Gosford", State: "NSW"}},
	"2300": {{Name: "Newcastle", State: "NSW"}, {Name: "Bar Beach", State: "NSW"}},
	"2500": {{Name: "Wollongong", State: "NSW"}, {Name: "West Wollongong", State: "NSW"}},
	"2560": {{Name: "Campbelltown", State: "NSW"}, {Name: "Leumeah", State: "NSW"}},

	// VIC
	"3000": {{Name: "Melbourne", State: "VIC"}},
	"3056": {{Name: "Brunswick", State: "VIC"}},
	"3121": {{Name: "Richmond", State: "VIC"}, {Name: "Burnley", State: "VIC"}},
	"3141": {{Name: "South Yarra", State: "VIC"}},
	"3150": {{Name: "Glen Waverley", State: "VIC"}, {Name: "Wheelers Hill", State: "VIC"}},
	"3199": {{Name: "Frankston", State: "VIC"}, {Name: "Frankston South", State: "VIC"}},
	"3220": {{Name: "Geelong", State: "VIC"}, {Name: "Newtown", State: "VIC"}, {Name: "South Geelong", State: "VIC"}},
	"3350": {{Name: "Ballarat Central", State: "VIC"}, {Name: "Alfredton", State: "VIC"}},
	"3550": {{Name: "Bendigo", State: "VIC"}, {Name: "East Bendigo", State: "VIC"}},
	"3977": {{Name: "Cranbourne", State: "VIC"}, {Name: "Skye", State: "VIC"}},

	// QLD
	"4000": {{Name: "Brisbane City", State: "QLD"}, {Name: "Spring Hill", State: "QLD"}},
	"4101": {{Name: "South Brisbane", State: "QLD"}, {Name: "West End", State: "QLD"}},
	"4217": {{Name: "Surfers Paradise", State: "QLD"}, {Name: "Benowa", State: "QLD"}},
	"4350": {{Name: "Toowoomba City", State: "QLD"}, {Name: "East Toowoomba", State: "QLD"}},
	"4551": {{Name: "Caloundra", State: "QLD"}, {Name: "Golden Beach", State: "QLD"}},
	"4700": {{Name: "Rockhampton City", State: "QLD"}, {Name: "The Range", State: "QLD"}},
	"4870": {{Name: "Cairns City", State: "QLD"}, {Name: "Manunda", State: "QLD"}},

	// WA
	"6000": {{Name: "Perth", State: "WA"}, {Name: "Northbridge", State: "WA"}},
	"6027": {{Name: "Joondalup", State: "WA"}, {Name: "Edgewater", State: "WA"}},
	"6150": {{Name: "Murdoch", State: "WA"}, {Name: "Bateman", State: "WA"}},
	"6160": {{Name: "Fremantle", State: "WA"}},
	"6230": {{Name: "Bunbury", State: "WA"}, {Name: "South Bunbury", State: "WA"}},

	// SA
	"5000": {{Name: "Adelaide", State: "SA"}},
	"5006": {{Name: "North Adelaide", State: "SA"}},
	"5159": {{Name: "Aberfoyle Park", State: "SA"}, {Name: "Flagstaff Hill", State: "SA"}},
	"5290": {{Name: "Mount Gambier", State: "SA"}},

	// TAS
	"7000": {{Name: "Hobart", State: "TAS"}, {Name: "Glebe", State: "TAS"}},
	"7250": {{Name: "Launceston", State: "TAS"}, {Name: "East Launceston", State: "TAS"}},

	// ACT
	"2600": {{Name: "Canberra", State: "ACT"}, {Name: "Barton", State: "ACT"}, {Name: "Deakin", State: "ACT"}},
	"2601": {{Name: "Acton", State: "ACT"}, {Name: "Canberra City", State: "ACT"}},
	"2615": {{Name: "Belconnen", State: "ACT"}, {Name: "Florey", State: "ACT"}, {Name: "Latham", State: "ACT"}},

	// NT
	"0800": {{Name: "Darwin City", State: "NT"}},
	"0870": {{Name: "Alice Springs", State: "NT"}, {Name: "The Gap", State: "NT"}},
}
