package filtering

import "fmt"

func NotInAnySegment(objectType string) string {
	return fmt.Sprintf("Hull %s won't be synchronized since it is not matching any of the filtered segments.", objectType)
}

func BatchSkipsSegmentFilter(objectType string) string {
	return fmt.Sprintf("Hull %s synchronized in batch operation. Segment filters not applied.", objectType)
}

func MissingLookupURL(attribute string) string {
	return fmt.Sprintf("Hull user doesn't have a value for attribute '%s' which is the LinkedIn or Twitter Url and is required to run enrichment.", attribute)
}

const MissingDomain = "Hull account doesn't have a value for attribute 'domain' which is required to run the domain search."
