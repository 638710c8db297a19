package ctdf

type TransportType string

const (
	TransportTypeBus       TransportType = "Bus"
	TransportTypeCoach     TransportType = "Coach"
	TransportTypeTram      TransportType = "Tram"
	TransportTypeRail      TransportType = "Rail"
	TransportTypeMetro     TransportType = "Metro"
	TransportTypeFerry     TransportType = "Ferry"
	TransportTypeCableCar  TransportType = "CableCar"
	TransportTypeFunicular TransportType = "Funicular"
	TransportTypeMonorail  TransportType = "Monorail"
	TransportTypeAir       TransportType = "Air"
	TransportTypeTaxi      TransportType = "Taxi"
	TransportTypeUnknown   TransportType = "UNKNOWN"
)

var routeTypeMapping = map[int]TransportType{
	0:   TransportTypeTram,
	1:   TransportTypeMetro,
	2:   TransportTypeRail,
	3:   TransportTypeBus,
	4:   TransportTypeFerry,
	5:   TransportTypeTram,
	6:   TransportTypeCableCar,
	7:   TransportTypeFunicular,
	11:  TransportTypeBus, // Trolleybus
	12:  TransportTypeMonorail,
	200: TransportTypeCoach,
}

// TransportTypeFromRouteType maps a GTFS route_type, including the extended
// hierarchical types (100 rail, 400 urban rail, 700 bus, ...), onto a TransportType
func TransportTypeFromRouteType(routeType int) TransportType {
	if transportType, exists := routeTypeMapping[routeType]; exists {
		return transportType
	}

	switch {
	case routeType >= 100 && routeType < 200:
		return TransportTypeRail
	case routeType >= 200 && routeType < 300:
		return TransportTypeCoach
	case routeType >= 400 && routeType < 500:
		return TransportTypeMetro
	case routeType >= 700 && routeType < 900:
		return TransportTypeBus
	case routeType >= 900 && routeType < 1000:
		return TransportTypeTram
	case routeType >= 1000 && routeType < 1100, routeType >= 1200 && routeType < 1300:
		return TransportTypeFerry
	case routeType >= 1100 && routeType < 1200:
		return TransportTypeAir
	case routeType >= 1300 && routeType < 1400:
		return TransportTypeCableCar
	case routeType >= 1400 && routeType < 1500:
		return TransportTypeFunicular
	case routeType >= 1500 && routeType < 1600:
		return TransportTypeTaxi
	}

	return TransportTypeUnknown
}
