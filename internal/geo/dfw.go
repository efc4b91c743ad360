package geo

// Static reference data for the Dallas-Fort Worth metropolitan area.
// Counties are stored without the "County" suffix; matching normalizes input
// the same way. Cities are stored lowercase.

var dfwCounties = []string{
	"dallas",
	"tarrant",
	"denton",
	"collin",
	"rockwall",
	"ellis",
	"kaufman",
	"parker",
	"johnson",
}

var dfwZIPCodes = []string{
	// Dallas County
	"75001", "75006", "75007", "75010", "75019", "75038", "75039", "75041",
	"75042", "75043", "75044", "75048", "75050", "75051", "75052", "75060",
	"75061", "75062", "75063", "75067", "75068", "75069", "75070", "75071",
	"75074", "75075", "75080", "75081", "75082", "75087", "75088", "75089",
	"75104", "75115", "75116", "75126", "75134", "75137", "75141", "75149",
	"75150", "75159", "75160", "75180", "75201", "75202", "75203", "75204",
	"75205", "75206", "75207", "75208", "75209", "75210", "75211", "75212",
	"75213", "75214", "75215", "75216", "75217", "75218", "75219", "75220",
	"75223", "75224", "75225", "75226", "75227", "75228", "75229", "75230",
	"75231", "75232", "75233", "75234", "75235", "75236", "75237", "75238",
	"75240", "75241", "75243", "75244", "75246", "75247", "75248", "75249",
	"75251", "75252", "75253", "75254", "75287",

	// Tarrant County
	"76001", "76002", "76006", "76008", "76010", "76011", "76012", "76013",
	"76014", "76015", "76016", "76017", "76018", "76019", "76020", "76021",
	"76022", "76028", "76031", "76034", "76036", "76039", "76040", "76051",
	"76052", "76053", "76054", "76058", "76060", "76063", "76092", "76102",
	"76103", "76104", "76105", "76106", "76107", "76108", "76109", "76110",
	"76111", "76112", "76114", "76115", "76116", "76117", "76118", "76119",
	"76120", "76123", "76126", "76131", "76132", "76133", "76134", "76135",
	"76137", "76140", "76148", "76155", "76164", "76177", "76179", "76180",
	"76182",

	// Collin County
	"75002", "75009", "75013", "75023", "75024", "75025", "75026", "75030",
	"75072", "75078", "75086", "75093", "75094", "75166", "75173", "75189",
	"75407", "75409", "75442", "75454", "75485", "75495",

	// Denton County
	"75022", "75028", "75056", "75057", "75065", "75077", "76201", "76205",
	"76207", "76208", "76209", "76210", "76226", "76227", "76244", "76247",
	"76249", "76258", "76262", "76266",

	// Rockwall County
	"75032", "75496",

	// Ellis County
	"75119", "75154", "75165", "75167", "76065",

	// Kaufman County
	"75142", "75143", "75147", "75156", "75169",

	// Parker County
	"76073", "76085", "76086", "76087", "76088",

	// Johnson County
	"76033", "76049", "76050", "76059", "76070",
}

var dfwCities = []string{
	// Dallas County
	"dallas", "irving", "garland", "mesquite", "richardson", "carrollton",
	"grand prairie", "addison", "balch springs", "cedar hill", "coppell",
	"desoto", "duncanville", "farmers branch", "glenn heights", "highland park",
	"hutchins", "lancaster", "rowlett", "sachse", "seagoville", "sunnyvale",
	"university park", "wilmer", "wylie",

	// Tarrant County
	"fort worth", "arlington", "mansfield", "euless", "bedford", "grapevine",
	"hurst", "keller", "north richland hills", "southlake", "colleyville",
	"haltom city", "watauga", "richland hills", "forest hill", "kennedale",
	"saginaw", "white settlement", "azle", "benbrook", "crowley", "everman",
	"lake worth", "river oaks",

	// Collin County
	"plano", "mckinney", "frisco", "allen", "murphy", "prosper", "celina",
	"anna", "fairview", "little elm", "lucas", "melissa", "parker",
	"princeton", "westminster",

	// Denton County
	"denton", "lewisville", "flower mound", "highland village", "the colony",
	"corinth", "lake dallas", "trophy club", "roanoke", "argyle", "northlake",

	// Rockwall County
	"rockwall", "royse city", "heath", "fate",

	// Ellis County
	"waxahachie", "ennis", "midlothian", "red oak", "ovilla", "ferris",

	// Kaufman County
	"kaufman", "forney", "terrell", "crandall", "combine",

	// Parker County
	"weatherford", "aledo", "hudson oaks", "willow park", "springtown",

	// Johnson County
	"cleburne", "burleson", "joshua", "alvarado", "venus", "grandview",
}
