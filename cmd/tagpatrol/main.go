// Tagpatrol - Tag Compliance Reporter
// Find untagged resources, name who made them, publish the spreadsheet.
package main

func main() {
	Execute()
}
