package enums

import (
	"fmt"
	"strings"
)

// ProductCategory represents the canonical product categories supported by the catalog.
type ProductCategory string

const (
	// Men
	CategoryTShirts         ProductCategory = "t-shirts"
	CategoryCasualShirts    ProductCategory = "casual shirts"
	CategoryFormalShirts    ProductCategory = "formal shirts"
	CategoryJeans           ProductCategory = "jeans"
	CategoryFormalTrousers  ProductCategory = "formal trousers"
	CategoryCasualTrousers  ProductCategory = "casual trousers"
	CategoryShorts          ProductCategory = "shorts"
	CategoryJackets         ProductCategory = "jackets"
	CategorySweatshirts     ProductCategory = "sweatshirts"
	CategoryBlazers         ProductCategory = "blazers"
	CategorySuits           ProductCategory = "suits"
	// Women
	CategoryTops         ProductCategory = "tops"
	CategorySkirts       ProductCategory = "skirts"
	CategoryJeansWomen   ProductCategory = "jeans-women"
	CategoryLeggings     ProductCategory = "leggings"
	CategoryKurtis       ProductCategory = "kurtis"
	CategorySarees       ProductCategory = "sarees"
	CategorySalwarSuits  ProductCategory = "salwar suits"
	CategoryJacketsWomen ProductCategory = "jackets-women"
	CategorySweaters     ProductCategory = "sweaters"
	// Kids
	CategoryTShirtsKids    ProductCategory = "t-shirts-kids"
	CategoryShirtsKids     ProductCategory = "shirts-kids"
	CategoryShortsKids     ProductCategory = "shorts-kids"
	CategoryFrocks         ProductCategory = "frocks"
	CategorySkirtsKids     ProductCategory = "skirts-kids"
	CategoryEthnicWearKids ProductCategory = "ethnic-wear-kids"
	// Shoes
	CategorySportsShoes ProductCategory = "sports-shoes"
	CategoryCasualShoes ProductCategory = "casual-shoes"
	CategoryFormalShoes ProductCategory = "formal-shoes"
	CategoryBoots       ProductCategory = "boots"
	CategoryHeels       ProductCategory = "heels"
	CategoryFlats       ProductCategory = "flats"
	// Slippers & sandals
	CategorySlippers  ProductCategory = "slippers"
	CategorySandals   ProductCategory = "sandals"
	CategoryFlipFlops ProductCategory = "flip-flops"
	CategoryCrocs     ProductCategory = "crocs"
	// Accessories
	CategoryWatches    ProductCategory = "watches"
	CategoryBelts      ProductCategory = "belts"
	CategoryWallets    ProductCategory = "wallets"
	CategoryHandbags   ProductCategory = "handbags"
	CategoryBackpacks  ProductCategory = "backpacks"
	CategorySunglasses ProductCategory = "sunglasses"
	CategoryJewellery  ProductCategory = "jewellery"
	CategoryCaps       ProductCategory = "caps"
	// Beauty
	CategoryMakeup   ProductCategory = "makeup"
	CategorySkincare ProductCategory = "skincare"
	CategoryHaircare ProductCategory = "haircare"
	// Perfumes
	CategoryPerfumesMen    ProductCategory = "perfumes-men"
	CategoryPerfumesWomen  ProductCategory = "perfumes-women"
	CategoryUnisexPerfumes ProductCategory = "unisex-perfumes"
)

var validProductCategories = []ProductCategory{
	CategoryTShirts, CategoryCasualShirts, CategoryFormalShirts, CategoryJeans,
	CategoryFormalTrousers, CategoryCasualTrousers, CategoryShorts, CategoryJackets,
	CategorySweatshirts, CategoryBlazers, CategorySuits,
	CategoryTops, CategorySkirts, CategoryJeansWomen, CategoryLeggings, CategoryKurtis,
	CategorySarees, CategorySalwarSuits, CategoryJacketsWomen, CategorySweaters,
	CategoryTShirtsKids, CategoryShirtsKids, CategoryShortsKids, CategoryFrocks,
	CategorySkirtsKids, CategoryEthnicWearKids,
	CategorySportsShoes, CategoryCasualShoes, CategoryFormalShoes, CategoryBoots,
	CategoryHeels, CategoryFlats,
	CategorySlippers, CategorySandals, CategoryFlipFlops, CategoryCrocs,
	CategoryWatches, CategoryBelts, CategoryWallets, CategoryHandbags, CategoryBackpacks,
	CategorySunglasses, CategoryJewellery, CategoryCaps,
	CategoryMakeup, CategorySkincare, CategoryHaircare,
	CategoryPerfumesMen, CategoryPerfumesWomen, CategoryUnisexPerfumes,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory. Matching is
// case-insensitive.
func ParseProductCategory(value string) (ProductCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ProductCategories returns the full category vocabulary.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// Gender is the audience a product is made for.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
)

var validGenders = []Gender{GenderMale, GenderFemale, GenderUnisex}

// String implements fmt.Stringer.
func (g Gender) String() string {
	return string(g)
}

// IsValid reports whether the value is a known Gender.
func (g Gender) IsValid() bool {
	for _, candidate := range validGenders {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGender converts raw input into a Gender.
func ParseGender(value string) (Gender, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validGenders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gender %q", value)
}
