package alias

// Default returns the built-in NCHU table: short colloquial abbreviations first,
// then the official per-college unit abbreviations.
func Default() *Table {
	clusters := make([]Cluster, 0, len(commonAbbreviations)+len(unitAbbreviations))
	clusters = append(clusters, commonAbbreviations...)
	clusters = append(clusters, unitAbbreviations...)
	return New(clusters)
}

// commonAbbreviations are the short forms students type.
var commonAbbreviations = []Cluster{
	// College of Science and Engineering
	{Abbr: "資工", FullNames: []string{"資訊工程", "資工系", "資訊工程學系", "資訊工程系"}},
	{Abbr: "電機", FullNames: []string{"電機工程", "電機系", "電機工程學系", "電機工程系"}},
	{Abbr: "化工", FullNames: []string{"化學工程", "化工系", "化學工程學系", "化學工程系"}},
	{Abbr: "材料", FullNames: []string{"材料科學", "材料系", "材料科學與工程學系", "材料工程系"}},
	{Abbr: "土木", FullNames: []string{"土木工程", "土木系", "土木工程學系", "土木工程系"}},
	{Abbr: "機械", FullNames: []string{"機械工程", "機械系", "機械工程學系", "機械工程系"}},
	{Abbr: "環工", FullNames: []string{"環境工程", "環工系", "環境工程學系", "環境工程系"}},
	{Abbr: "數學", FullNames: []string{"應用數學", "數學系", "應用數學系", "應用數學學系"}},
	{Abbr: "物理", FullNames: []string{"物理學系", "物理系", "應用物理", "物理"}},
	{Abbr: "化學", FullNames: []string{"化學系", "化學學系"}},

	// College of Liberal Arts
	{Abbr: "中文", FullNames: []string{"中國文學", "中文系", "中國文學系", "中國文學學系"}},
	{Abbr: "外文", FullNames: []string{"外國語文", "外文系", "外國語文學系", "英語"}},
	{Abbr: "歷史", FullNames: []string{"歷史學系", "歷史系"}},
	{Abbr: "圖資", FullNames: []string{"圖書資訊", "圖資系", "圖書資訊學系"}},

	// College of Agriculture and Natural Resources
	{Abbr: "農藝", FullNames: []string{"農藝學系", "農藝系"}},
	{Abbr: "園藝", FullNames: []string{"園藝學系", "園藝系"}},
	{Abbr: "森林", FullNames: []string{"森林學系", "森林系", "森林系"}},
	{Abbr: "動科", FullNames: []string{"動物科學", "動科系", "動物科學系"}},
	{Abbr: "土壤", FullNames: []string{"土壤環境", "土壤系", "土壤環境科學系"}},
	{Abbr: "昆蟲", FullNames: []string{"昆蟲學系", "昆蟲系"}},
	{Abbr: "植病", FullNames: []string{"植物病理", "植病系", "植物病理學系"}},
	{Abbr: "食生", FullNames: []string{"食品暨應用生物科技", "食生系", "食品生物"}},
	{Abbr: "生技", FullNames: []string{"生物科技", "生技系"}},

	// College of Life Sciences
	{Abbr: "生科", FullNames: []string{"生命科學", "生科系", "生命科學系"}},
	{Abbr: "生醫", FullNames: []string{"生醫工程", "生醫系", "生物醫學工程"}},

	// College of Veterinary Medicine
	{Abbr: "獸醫", FullNames: []string{"獸醫學系", "獸醫系"}},

	// College of Management
	{Abbr: "企管", FullNames: []string{"企業管理", "企管系", "企業管理學系"}},
	{Abbr: "會計", FullNames: []string{"會計學系", "會計系"}},
	{Abbr: "財金", FullNames: []string{"財務金融", "財金系", "財務金融學系"}},
	{Abbr: "資管", FullNames: []string{"資訊管理", "資管系", "資訊管理學系"}},
	{Abbr: "行銷", FullNames: []string{"行銷學系", "行銷系"}},
	{Abbr: "國企", FullNames: []string{"國際企業", "國企系", "國際企業學系"}},

	// College of Law and Politics
	{Abbr: "法律", FullNames: []string{"法律學系", "法律系"}},
	{Abbr: "政治", FullNames: []string{"政治學系", "政治系"}},
	{Abbr: "國政", FullNames: []string{"國際政治", "國政系", "國際政治研究所"}},

	// Campus-wide programs
	{Abbr: "通識", FullNames: []string{"通識教育", "通識課程"}},
	{Abbr: "體育", FullNames: []string{"體育", "體育課程"}},
	{Abbr: "軍訓", FullNames: []string{"軍訓", "全民國防"}},
	{Abbr: "服務", FullNames: []string{"服務學習"}},
	{Abbr: "EMBA", FullNames: []string{"高階經理人碩士在職專班"}},
}

// unitAbbreviations are the official unit abbreviations used on the catalog.
var unitAbbreviations = []Cluster{
	// College of Liberal Arts
	{Abbr: "中文系", FullNames: []string{"中國文學系"}},
	{Abbr: "外文系", FullNames: []string{"外國語文學系"}},
	{Abbr: "歷史系", FullNames: []string{"歷史學系"}},
	{Abbr: "台文學士學程", FullNames: []string{"台灣人文創新學士學位學程"}},
	{Abbr: "圖資所", FullNames: []string{"圖書資訊學研究所"}},
	{Abbr: "台文所", FullNames: []string{"台灣文學與跨國文化研究所"}},
	{Abbr: "跨文化學程", FullNames: []string{"台灣與跨文化研究國際博士學位學程"}},
	{Abbr: "文創學程", FullNames: []string{"數位人文與文創產業學士學位學程"}},

	// College of Agriculture and Natural Resources
	{Abbr: "農藝系", FullNames: []string{"農藝學系"}},
	{Abbr: "園藝系", FullNames: []string{"園藝學系"}},
	{Abbr: "森林系", FullNames: []string{"森林學系"}},
	{Abbr: "應經系", FullNames: []string{"應用經濟學系"}},
	{Abbr: "植病系", FullNames: []string{"植物病理學系"}},
	{Abbr: "昆蟲系", FullNames: []string{"昆蟲學系"}},
	{Abbr: "動科系", FullNames: []string{"動物科學系"}},
	{Abbr: "土環系", FullNames: []string{"土壤環境科學系"}},
	{Abbr: "水保系", FullNames: []string{"水土保持學系"}},
	{Abbr: "食生系", FullNames: []string{"食品暨應用生物科技學系"}},
	{Abbr: "生機系", FullNames: []string{"生物產業機電工程學系"}},
	{Abbr: "生技所", FullNames: []string{"生物科技學研究所"}},
	{Abbr: "生管所", FullNames: []string{"生物產業管理研究所"}},
	{Abbr: "食安所", FullNames: []string{"食品安全研究所"}},
	{Abbr: "農企業碩專班", FullNames: []string{"農業企業經營管理碩士在職專班"}},
	{Abbr: "生技學程", FullNames: []string{"生物科技學士學位學程"}},
	{Abbr: "景觀學程", FullNames: []string{"景觀與遊憩學士學位學程"}},
	{Abbr: "景觀碩士學程", FullNames: []string{"景觀與遊憩碩士學位學程"}},
	{Abbr: "生管學程", FullNames: []string{"生物產業管理進修學士學位學程"}},
	{Abbr: "國農企學程", FullNames: []string{"國際農企業學士學位學程"}},
	{Abbr: "國農碩學程", FullNames: []string{"國際農學碩士學位學程"}},
	{Abbr: "農經學程", FullNames: []string{"農業經濟與行銷碩士學位學程"}},
	{Abbr: "植醫學程", FullNames: []string{"植物醫學暨安全農業碩士學位學程"}},
	{Abbr: "國農博學程", FullNames: []string{"國際農學博士學位學程"}},

	// College of Science
	{Abbr: "化學系", FullNames: []string{"化學系"}},
	{Abbr: "應數系", FullNames: []string{"應用數學系"}},
	{Abbr: "物理系", FullNames: []string{"物理學系"}},
	{Abbr: "奈米所", FullNames: []string{"奈米科學研究所"}},
	{Abbr: "統計所", FullNames: []string{"統計學研究所"}},
	{Abbr: "資科所", FullNames: []string{"資料科學與資訊計算研究所"}},
	{Abbr: "大數據學程", FullNames: []string{"大數據產學研發博士學位學程"}},
	{Abbr: "人工智慧學程", FullNames: []string{"人工智慧與資料科學碩士在職學位學程"}},

	// College of Engineering
	{Abbr: "土木系", FullNames: []string{"土木工程學系"}},
	{Abbr: "機械系", FullNames: []string{"機械工程學系"}},
	{Abbr: "環工系", FullNames: []string{"環境工程學系"}},
	{Abbr: "化工系", FullNames: []string{"化學工程學系"}},
	{Abbr: "材料系", FullNames: []string{"材料科學與工程學系"}},
	{Abbr: "智慧創意學程", FullNames: []string{"智慧創意工程學士學位學程"}},
	{Abbr: "精密所", FullNames: []string{"精密工程研究所"}},
	{Abbr: "醫工所", FullNames: []string{"生醫工程研究所"}},

	// College of Life Sciences
	{Abbr: "生科系", FullNames: []string{"生命科學系"}},
	{Abbr: "分生所", FullNames: []string{"分子生物學研究所"}},
	{Abbr: "生化所", FullNames: []string{"生物化學研究所"}},
	{Abbr: "生醫所", FullNames: []string{"生物醫學研究所"}},
	{Abbr: "生科院碩專班", FullNames: []string{"生命科學院碩士在職專班"}},
	{Abbr: "基資所", FullNames: []string{"基因體暨生物資訊學研究所"}},
	{Abbr: "精準健康碩士", FullNames: []string{"精準健康碩士學位學程"}},
	{Abbr: "醫科學程", FullNames: []string{"醫學生物科技博士學位學程"}},
	{Abbr: "轉譯醫學學程", FullNames: []string{"轉譯醫學博士學位學程"}},
	{Abbr: "生創博士學程", FullNames: []string{"生技產業創新研發與管理博士學位學程"}},

	// College of Veterinary Medicine
	{Abbr: "獸醫系", FullNames: []string{"獸醫學系"}},
	{Abbr: "微衛所", FullNames: []string{"微生物暨公共衛生學研究所"}},
	{Abbr: "獸病所", FullNames: []string{"獸醫病理生物學研究所"}},

	// College of Management
	{Abbr: "財金系", FullNames: []string{"財務金融學系"}},
	{Abbr: "企管系", FullNames: []string{"企業管理學系"}},
	{Abbr: "行銷系", FullNames: []string{"行銷學系"}},
	{Abbr: "資管系", FullNames: []string{"資訊管理學系"}},
	{Abbr: "會計系", FullNames: []string{"會計學系"}},
	{Abbr: "科管所", FullNames: []string{"科技管理研究所"}},
	{Abbr: "運健所", FullNames: []string{"運動與健康管理研究所"}},
	{Abbr: "EMBA", FullNames: []string{"高階經理人碩士在職專班"}},
	{Abbr: "創產經營學程", FullNames: []string{"創新產業經營學士學位學程"}},

	// College of Law and Politics
	{Abbr: "法律系", FullNames: []string{"法律學系"}},
	{Abbr: "國政所", FullNames: []string{"國際政治研究所"}},
	{Abbr: "國務所", FullNames: []string{"國家政策與公共事務研究所"}},
	{Abbr: "教研所", FullNames: []string{"教師專業發展研究所"}},
	{Abbr: "亞洲中國學程", FullNames: []string{"亞洲與中國研究英語碩士學位學程"}},

	// College of Electrical Engineering and Computer Science
	{Abbr: "電機系", FullNames: []string{"電機工程學系"}},
	{Abbr: "資工系", FullNames: []string{"資訊工程學系"}},
	{Abbr: "電資學士班", FullNames: []string{"電機資訊學院學士班"}},
	{Abbr: "通訊所", FullNames: []string{"通訊工程研究所"}},
	{Abbr: "光電所", FullNames: []string{"光電工程研究所"}},

	// College of Medicine
	{Abbr: "學士後醫學系", FullNames: []string{"學士後醫學系"}},
	{Abbr: "臨醫所", FullNames: []string{"臨床醫學研究所"}},
	{Abbr: "臨護所", FullNames: []string{"臨床護理研究所"}},
	{Abbr: "組醫學程", FullNames: []string{"組織工程與再生醫學博士學位學程"}},

	// College of Innovation and International Affairs
	{Abbr: "跨洲學程", FullNames: []string{"全球事務研究跨洲碩士學位學程"}},
	{Abbr: "TMP", FullNames: []string{"全球事務研究跨洲碩士學位學程"}},
	{Abbr: "永續碩士學程", FullNames: []string{"生物與永續科技碩士學位學程"}},
	{Abbr: "永續博士學程", FullNames: []string{"生物與永續科技博士學位學程"}},

	// College of Circular Economy
	{Abbr: "代謝碩士學程", FullNames: []string{"特用作物及代謝體碩士學位學程"}},
	{Abbr: "代謝博士學程", FullNames: []string{"特用作物及代謝體博士學位學程"}},
	{Abbr: "植保碩士學程", FullNames: []string{"植物保健碩士學位學程"}},
	{Abbr: "植保博士學程", FullNames: []string{"植物保健博士學位學程"}},
	{Abbr: "農企碩士學程", FullNames: []string{"國際精準農企業發展碩士學位學程"}},
	{Abbr: "農企博士學程", FullNames: []string{"國際精準農企業發展博士學位學程"}},
	{Abbr: "智科碩士學程", FullNames: []string{"工業與智慧科技碩士學位學程"}},
	{Abbr: "智科博士學程", FullNames: []string{"工業與智慧科技博士學位學程"}},
	{Abbr: "半導體碩學程", FullNames: []string{"半導體與綠色科技碩士學位學程"}},
	{Abbr: "半導體博學程", FullNames: []string{"半導體與綠色科技博士學位學程"}},
	{Abbr: "微基學程", FullNames: []string{"微生物基因體學博士學位學程"}},
}
