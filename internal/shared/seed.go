package shared

import "safeher_travel/internal/domain"

type Region struct {
	Name string
	Lat  float64
	Lng  float64
}

// Regions are the supported areas; the ingestor pulls POIs around each centre.
var Regions = []Region{
	{"Chennai", 13.0827, 80.2707},
	{"Coimbatore", 11.0168, 76.9558},
	{"Madurai", 9.9252, 78.1198},
	{"Tiruchirappalli", 10.7905, 78.7047},
	{"Salem", 11.6643, 78.1460},
	{"Tirunelveli", 8.7139, 77.7567},
	{"Vellore", 12.9165, 79.1325},
	{"Thanjavur", 10.7870, 79.1378},
	{"Kanyakumari", 8.0883, 77.5385},
	{"Kodaikanal", 10.2381, 77.4892},
	{"Ooty", 11.4102, 76.6950},
	{"Pondicherry", 11.9416, 79.8083},
}

func RegionNames() []string {
	out := make([]string, len(Regions))
	for i, r := range Regions {
		out[i] = r.Name
	}
	return out
}

func police(id, name, addr, city string, lat, lng float64, phone, typ string) domain.Resource {
	return domain.Resource{
		ID: id, Kind: domain.KindPolice, Name: name, Address: addr, City: city, District: city,
		State: "Tamil Nadu", Lat: lat, Lng: lng, Phone: phone, Subtype: typ, Is24x7: true, Source: "seed",
	}
}

func hospital(id, name, addr, city string, lat, lng float64, phone, typ string) domain.Resource {
	return domain.Resource{
		ID: id, Kind: domain.KindHospital, Name: name, Address: addr, City: city, District: city,
		State: "Tamil Nadu", Lat: lat, Lng: lng, Phone: phone, EmergencyPhone: phone, Subtype: typ,
		Is24x7: true, Source: "seed",
	}
}

func safeZone(id, name, typ, addr string, lat, lng float64, allDay bool, desc string) domain.Resource {
	return domain.Resource{
		ID: id, Kind: domain.KindSafeZone, Name: name, Address: addr, State: "Tamil Nadu",
		Lat: lat, Lng: lng, Subtype: typ, Is24x7: allDay, Description: desc, Source: "seed",
	}
}

// SeedResources is the curated baseline loaded by `ingestor -seed`.
var SeedResources = []domain.Resource{
	police("ps_001", "Chennai Commissioner Office", "Vepery, Chennai", "Chennai", 13.0781, 80.2619, "044-23452323", "Commissioner Office"),
	police("ps_002", "Egmore Police Station", "Egmore, Chennai", "Chennai", 13.0732, 80.2609, "044-28447004", "Local"),
	police("ps_003", "T.Nagar Police Station", "T.Nagar, Chennai", "Chennai", 13.0417, 80.2338, "044-24340740", "Local"),
	police("ps_004", "Anna Nagar Police Station", "Anna Nagar West, Chennai", "Chennai", 13.0878, 80.2084, "044-26162222", "Local"),
	police("ps_005", "Mylapore Police Station", "Mylapore, Chennai", "Chennai", 13.0339, 80.2619, "044-24641110", "Local"),
	police("ps_006", "Adyar Police Station", "Adyar, Chennai", "Chennai", 13.0067, 80.2575, "044-24910278", "Local"),
	police("ps_007", "Velachery Police Station", "Velachery, Chennai", "Chennai", 12.9750, 80.2210, "044-22480530", "Local"),
	police("ps_008", "Tambaram Police Station", "Tambaram, Chennai", "Chennai", 12.9249, 80.1000, "044-22260530", "Local"),
	police("ps_009", "Nungambakkam Police Station", "Nungambakkam, Chennai", "Chennai", 13.0569, 80.2426, "044-28278901", "Local"),
	police("ps_010", "Royapettah Police Station", "Royapettah, Chennai", "Chennai", 13.0527, 80.2625, "044-28113100", "Local"),
	police("ps_011", "Coimbatore City Police Office", "RS Puram, Coimbatore", "Coimbatore", 11.0168, 76.9558, "0422-2305000", "City Office"),
	police("ps_012", "RS Puram Police Station", "RS Puram, Coimbatore", "Coimbatore", 11.0099, 76.9552, "0422-2544668", "Local"),
	police("ps_013", "Gandhipuram Police Station", "Gandhipuram, Coimbatore", "Coimbatore", 11.0175, 76.9675, "0422-2211100", "Local"),
	police("ps_014", "Race Course Police Station", "Race Course, Coimbatore", "Coimbatore", 11.0015, 76.9636, "0422-2231100", "Local"),
	police("ps_015", "Peelamedu Police Station", "Peelamedu, Coimbatore", "Coimbatore", 11.0302, 77.0082, "0422-2571100", "Local"),
	police("ps_016", "Madurai City Police Office", "Tallakulam, Madurai", "Madurai", 9.9195, 78.1193, "0452-2534444", "City Office"),
	police("ps_017", "Trichy City Police Office", "Junction, Trichy", "Tiruchirappalli", 10.8080, 78.6867, "0431-2414100", "City Office"),
	police("ps_018", "Salem City Police Office", "Fort Main Road, Salem", "Salem", 11.6643, 78.1460, "0427-2413333", "City Office"),
	police("ps_019", "Thiruvallur Town Police Station", "Kakkalur Road, Thiruvallur", "Thiruvallur", 13.1439, 79.9132, "044-27660211", "Town"),
	police("ps_020", "Thiruvallur All Women Police Station", "Junction Road, Thiruvallur", "Thiruvallur", 13.1480, 79.9080, "044-27665411", "Women"),

	hospital("h_001", "Apollo Hospitals Chennai", "Greams Road, Chennai", "Chennai", 13.0563, 80.2474, "044-28296000", "Multi-specialty"),
	hospital("h_002", "Fortis Malar Hospital", "Adyar, Chennai", "Chennai", 13.0038, 80.2557, "044-42892222", "Multi-specialty"),
	hospital("h_003", "Government General Hospital", "Park Town, Chennai", "Chennai", 13.0878, 80.2785, "044-25305000", "Government"),
	hospital("h_004", "MIOT International", "Manapakkam, Chennai", "Chennai", 13.0199, 80.1686, "044-42002000", "Multi-specialty"),
	hospital("h_005", "Coimbatore Medical College", "Avinashi Road, Coimbatore", "Coimbatore", 10.9979, 76.9669, "0422-2570170", "Government"),
	hospital("h_006", "PSG Hospitals", "Peelamedu, Coimbatore", "Coimbatore", 11.0251, 77.0062, "0422-4345000", "Multi-specialty"),
	hospital("h_007", "Government Rajaji Hospital", "Palpannai, Madurai", "Madurai", 9.9402, 78.1348, "0452-2530451", "Government"),
	hospital("h_008", "Mahatma Gandhi Memorial Hospital", "Srirangam, Trichy", "Tiruchirappalli", 10.8656, 78.6921, "0431-2770221", "Government"),
	hospital("h_009", "Government Mohan Kumaramangalam Hospital", "Steel Plant Road, Salem", "Salem", 11.6643, 78.1560, "0427-2241111", "Government"),
	hospital("h_010", "Christian Medical College Vellore", "Ida Scudder Road, Vellore", "Vellore", 12.9252, 79.1344, "0416-2282020", "Medical College"),
	hospital("h_011", "Govt Headquarters Hospital Thiruvallur", "Chennai-Tiruttani Highway, Thiruvallur", "Thiruvallur", 13.1384, 79.9074, "044-27660311", "Government"),
	hospital("h_012", "Rishi Hospital", "MGR Nagar, Thiruvallur", "Thiruvallur", 13.1500, 79.9200, "044-27661234", "Private"),

	safeZone("sz_001", "Chennai Central Railway Station", "railway_station", "Periyamet, Chennai", 13.0827, 80.2707, true, "24/7 Major railway station"),
	safeZone("sz_002", "Chennai International Airport", "airport", "Meenambakkam, Chennai", 12.9941, 80.1709, true, "24/7 International airport"),
	safeZone("sz_003", "Coimbatore Junction", "railway_station", "RS Puram, Coimbatore", 11.0078, 76.9618, true, "24/7 Railway station"),
	safeZone("sz_004", "Phoenix Marketcity Chennai", "shopping_mall", "Velachery, Chennai", 12.9916, 80.2200, false, "Major mall with security"),
	safeZone("sz_005", "CMBT Chennai", "bus_terminal", "Koyambedu, Chennai", 13.0719, 80.1977, true, "24/7 Bus terminal"),
}
